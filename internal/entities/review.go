package entities

import "time"

type ModerationStatus string

const (
	ModerationStatusPending  ModerationStatus = "pending"
	ModerationStatusApproved ModerationStatus = "approved"
	ModerationStatusRejected ModerationStatus = "rejected"
)

type ReviewImage struct {
	URL string
	Alt string
}

type Moderation struct {
	Status      ModerationStatus
	ModeratedBy string
	ModeratedAt *time.Time
	Reason      string
}

type HelpfulVote struct {
	UserID    string
	IsHelpful bool
	VotedAt   time.Time
}

type ReviewReport struct {
	UserID     string
	Reason     string
	ReportedAt time.Time
}

type SellerResponse struct {
	Comment     string
	RespondedAt time.Time
	RespondedBy string
}

type Review struct {
	ID         string
	ProductID  string
	CustomerID string
	OrderID    string
	Rating     int
	Title      string
	Comment    string
	Images     []ReviewImage

	HelpfulCount int
	HelpfulVotes []HelpfulVote

	// Verified выставляется только при создании, если у покупателя
	// есть доставленный заказ с этим товаром
	Verified   bool
	Moderation Moderation

	SellerResponse *SellerResponse
	ReportCount    int
	Reports        []ReviewReport

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Review) IsApproved() bool {
	return r.Moderation.Status == ModerationStatusApproved
}

func (r *Review) Approve(moderatorID string) {
	now := time.Now()
	r.Moderation.Status = ModerationStatusApproved
	r.Moderation.ModeratedBy = moderatorID
	r.Moderation.ModeratedAt = &now
	r.Moderation.Reason = ""
}

func (r *Review) Reject(moderatorID, reason string) {
	now := time.Now()
	r.Moderation.Status = ModerationStatusRejected
	r.Moderation.ModeratedBy = moderatorID
	r.Moderation.ModeratedAt = &now
	r.Moderation.Reason = reason
}

// MarkHelpful - повторный голос того же пользователя перезаписывает прошлый
func (r *Review) MarkHelpful(userID string, isHelpful bool) {
	voted := false
	for i := range r.HelpfulVotes {
		if r.HelpfulVotes[i].UserID == userID {
			r.HelpfulVotes[i].IsHelpful = isHelpful
			r.HelpfulVotes[i].VotedAt = time.Now()
			voted = true
			break
		}
	}
	if !voted {
		r.HelpfulVotes = append(r.HelpfulVotes, HelpfulVote{
			UserID:    userID,
			IsHelpful: isHelpful,
			VotedAt:   time.Now(),
		})
	}

	count := 0
	for _, v := range r.HelpfulVotes {
		if v.IsHelpful {
			count++
		}
	}
	r.HelpfulCount = count
}

// Report - повторная жалоба того же пользователя игнорируется
func (r *Review) Report(userID, reason string) {
	for _, rep := range r.Reports {
		if rep.UserID == userID {
			return
		}
	}
	r.Reports = append(r.Reports, ReviewReport{
		UserID:     userID,
		Reason:     reason,
		ReportedAt: time.Now(),
	})
	r.ReportCount++
}

func (r *Review) AddSellerResponse(sellerID, comment string) {
	r.SellerResponse = &SellerResponse{
		Comment:     comment,
		RespondedAt: time.Now(),
		RespondedBy: sellerID,
	}
}
