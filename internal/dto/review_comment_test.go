package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(n int) []model.ReviewComment {
	out := make([]model.ReviewComment, n)
	for i := range out {
		out[i] = model.ReviewComment{CommentID: int64(i + 1), ReviewID: 42, AuthorID: uuid.New(), Content: "c"}
	}
	return out
}

func TestNewCommentPageTrimsProbeRow(t *testing.T) {
	page := NewCommentPage(records(4), 2, 3)
	assert.True(t, page.HasNext)
	assert.Len(t, page.Content, 3)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Size)
	assert.Equal(t, int64(3), page.Content[2].CommentID)
}

func TestNewCommentPageLastPage(t *testing.T) {
	page := NewCommentPage(records(3), 0, 3)
	assert.False(t, page.HasNext)
	assert.Len(t, page.Content, 3)

	empty := NewCommentPage(nil, 5, 10)
	assert.False(t, empty.HasNext)
	assert.NotNil(t, empty.Content)

	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[],"page":5,"size":10,"has_next":false}`, string(data))
}

func TestReviewCommentResponseJSON(t *testing.T) {
	group := int64(1783920411234567890)
	author := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	c := model.ReviewComment{
		CommentID:  1783920411234567891,
		ReviewID:   42,
		AuthorID:   author,
		Content:    "re",
		GroupID:    &group,
		CommentRef: &group,
		Likes:      3,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 123e6, time.UTC),
		Updated:    true,
	}

	data, err := json.Marshal(NewReviewCommentResponse(&c))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"comment_id": "1783920411234567891",
		"review_id": 42,
		"author_id": "0f8fad5b-d9cb-469f-a165-70867728950e",
		"content": "re",
		"content_html": "re",
		"group_id": "1783920411234567890",
		"comment_ref": "1783920411234567890",
		"likes": 3,
		"created_at": "2024-05-01T12:00:00.123Z",
		"updated": true
	}`, string(data))

	root := model.ReviewComment{CommentID: 1, AuthorID: author, Content: "root"}
	data, err = json.Marshal(NewReviewCommentResponse(&root))
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["group_id"])
	assert.Nil(t, decoded["comment_ref"])
}

func TestCreateRequestAcceptsStringIDs(t *testing.T) {
	var req ReviewCommentCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"content":"re","group_id":"1783920411234567890"}`), &req))
	require.NotNil(t, req.GroupID)
	assert.Equal(t, int64(1783920411234567890), *req.GroupID)
	assert.Nil(t, req.CommentRef)
}
