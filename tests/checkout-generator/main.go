package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const checkoutURL = "http://localhost:8080/api/orders"

type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items"`
	ShippingAddress Address        `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	ShippingMethod  string         `json:"shippingMethod"`
}

var (
	paymentMethods  = []string{"credit_card", "debit_card", "paypal", "stripe"}
	shippingMethods = []string{"standard", "express", "overnight", "economy"}
)

func randomString(n int) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyz0123456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// productIDs передаются через PRODUCT_IDS, иначе берутся случайные -
// такие заказы проверяют ответ 404
func productIDs() []string {
	if env := os.Getenv("PRODUCT_IDS"); env != "" {
		var ids []string
		if err := json.Unmarshal([]byte(env), &ids); err == nil {
			return ids
		}
	}
	return nil
}

func signToken(secret, userID string) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    "customer",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		log.Fatal(err)
	}
	return signed
}

func randomCheckout(ids []string) CheckoutRequest {
	var items []CheckoutItem
	n := rand.Intn(3) + 1
	for j := 0; j < n; j++ {
		id := randomString(32)
		if len(ids) > 0 {
			id = ids[rand.Intn(len(ids))]
		}
		items = append(items, CheckoutItem{ProductID: id, Quantity: rand.Intn(3) + 1})
	}

	return CheckoutRequest{
		Items: items,
		ShippingAddress: Address{
			FirstName: "John",
			LastName:  "Doe",
			Email:     fmt.Sprintf("user%d@example.com", rand.Intn(1000)),
			Phone:     fmt.Sprintf("+%d", rand.Intn(9999999999)),
			Street:    fmt.Sprintf("Street %d", rand.Intn(100)),
			City:      "City" + randomString(4),
			ZipCode:   fmt.Sprintf("%06d", rand.Intn(999999)),
			Country:   "US",
		},
		PaymentMethod:  paymentMethods[rand.Intn(len(paymentMethods))],
		ShippingMethod: shippingMethods[rand.Intn(len(shippingMethods))],
	}
}

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "secret"
	}
	token := signToken(secret, "customer_"+randomString(5))
	ids := productIDs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ticker := time.NewTicker(2 * time.Second)
	for {
		select {
		case <-ticker.C:
			data, _ := json.Marshal(randomCheckout(ids))

			req, _ := http.NewRequest(http.MethodPost, checkoutURL, bytes.NewReader(data))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				log.Println("checkout failed:", err)
				continue
			}
			resp.Body.Close()
			log.Println("checkout sent ->", resp.Status)
		case <-ctx.Done():
			return
		}
	}
}
