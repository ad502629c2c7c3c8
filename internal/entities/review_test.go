package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvshop/marketplace-service/internal/entities"
)

func TestReview_MarkHelpful(t *testing.T) {
	rev := entities.Review{}

	rev.MarkHelpful("user-1", true)
	rev.MarkHelpful("user-2", true)
	rev.MarkHelpful("user-3", false)

	assert.Len(t, rev.HelpfulVotes, 3)
	assert.Equal(t, 2, rev.HelpfulCount)

	// повторный голос перезаписывает прошлый, а не дублирует
	rev.MarkHelpful("user-1", false)
	assert.Len(t, rev.HelpfulVotes, 3)
	assert.Equal(t, 1, rev.HelpfulCount)

	rev.MarkHelpful("user-3", true)
	assert.Equal(t, 2, rev.HelpfulCount)
}

func TestReview_Report(t *testing.T) {
	rev := entities.Review{}

	rev.Report("user-1", "spam")
	rev.Report("user-2", "offensive")

	assert.Equal(t, 2, rev.ReportCount)
	assert.Len(t, rev.Reports, 2)

	// повторная жалоба того же пользователя игнорируется
	rev.Report("user-1", "spam again")
	assert.Equal(t, 2, rev.ReportCount)
	assert.Len(t, rev.Reports, 2)
}

func TestReview_Moderation(t *testing.T) {
	rev := entities.Review{}
	assert.False(t, rev.IsApproved())

	rev.Approve("admin-1")
	assert.True(t, rev.IsApproved())
	assert.Equal(t, "admin-1", rev.Moderation.ModeratedBy)
	require.NotNil(t, rev.Moderation.ModeratedAt)

	rev.Reject("admin-2", "inappropriate language")
	assert.False(t, rev.IsApproved())
	assert.Equal(t, entities.ModerationStatusRejected, rev.Moderation.Status)
	assert.Equal(t, "inappropriate language", rev.Moderation.Reason)
}

func TestReview_AddSellerResponse(t *testing.T) {
	rev := entities.Review{}

	rev.AddSellerResponse("seller-1", "thanks for the feedback")

	require.NotNil(t, rev.SellerResponse)
	assert.Equal(t, "seller-1", rev.SellerResponse.RespondedBy)
	assert.Equal(t, "thanks for the feedback", rev.SellerResponse.Comment)
	assert.False(t, rev.SellerResponse.RespondedAt.IsZero())
}
