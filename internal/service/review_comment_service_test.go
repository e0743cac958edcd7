package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/nsxzhou1114/movie-review-api/internal/apperr"
	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"github.com/nsxzhou1114/movie-review-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeAnchor map[int64]bool

func (a fakeAnchor) Exists(ctx context.Context, reviewID int64) (bool, error) {
	return a[reviewID], nil
}

type seqIDs struct {
	n int64
}

func (s *seqIDs) NextID() int64 {
	return atomic.AddInt64(&s.n, 1)
}

type testEnv struct {
	svc   *ReviewCommentService
	store *repository.GormReviewCommentStore
	ctx   context.Context
}

// newTestEnv 影评 42 与 43 存在；frozen 为 true 时所有评论的创建时间相同
func newTestEnv(t *testing.T, frozen bool, opts ...Option) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, model.InitTables(db))

	var (
		mu  sync.Mutex
		now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		if !frozen {
			now = now.Add(time.Second)
		}
		return now
	}

	store := repository.NewGormReviewCommentStore(db, &seqIDs{}, repository.WithClock(clock))
	svc := NewReviewCommentService(store, fakeAnchor{42: true, 43: true}, NewTextFilter("spoiler"), opts...)
	return &testEnv{svc: svc, store: store, ctx: context.Background()}
}

func (e *testEnv) parent(t *testing.T, reviewID int64, content string) *model.ReviewComment {
	t.Helper()
	c, err := e.svc.AddParent(e.ctx, reviewID, uuid.New(), model.ReviewCommentDraft{Content: content})
	require.NoError(t, err)
	return c
}

func (e *testEnv) child(t *testing.T, reviewID, groupID int64, content string) *model.ReviewComment {
	t.Helper()
	c, err := e.svc.AddChild(e.ctx, reviewID, groupID, uuid.New(), model.ReviewCommentDraft{Content: content})
	require.NoError(t, err)
	return c
}

func commentIDs(comments []model.ReviewComment) []int64 {
	out := make([]int64, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.CommentID)
	}
	return out
}

func TestParentInsertThenFetch(t *testing.T) {
	e := newTestEnv(t, false)

	c1 := e.parent(t, 42, "hi")
	assert.Greater(t, c1.CommentID, int64(0))
	assert.Nil(t, c1.GroupID)
	assert.Nil(t, c1.CommentRef)
	assert.Equal(t, 0, c1.Likes)
	assert.False(t, c1.Updated)

	parents, err := e.svc.GetParents(e.ctx, 42, model.SortLatest, 0, 10)
	require.NoError(t, err)
	assert.Contains(t, commentIDs(parents), c1.CommentID)
}

func TestAddParentNormalizesDraft(t *testing.T) {
	e := newTestEnv(t, false)
	group := int64(77)

	c, err := e.svc.AddParent(e.ctx, 42, uuid.New(), model.ReviewCommentDraft{
		CommentID:  999,
		Content:    "hi",
		GroupID:    &group,
		CommentRef: &group,
		Likes:      50,
		CreatedAt:  time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		Updated:    true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, int64(999), c.CommentID)
	assert.Nil(t, c.GroupID)
	assert.Nil(t, c.CommentRef)
	assert.Equal(t, 0, c.Likes)
	assert.False(t, c.Updated)
	assert.Equal(t, 2024, c.CreatedAt.Year())
}

func TestUnknownReviewRejected(t *testing.T) {
	e := newTestEnv(t, false)

	_, err := e.svc.AddParent(e.ctx, 7, uuid.New(), model.ReviewCommentDraft{Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrNoReviewFound)
	_, err = e.svc.GetParents(e.ctx, 7, model.SortLatest, 0, 10)
	assert.ErrorIs(t, err, apperr.ErrNoReviewFound)
	_, err = e.svc.GetChildren(e.ctx, 7, 1, 0, 10)
	assert.ErrorIs(t, err, apperr.ErrNoReviewFound)
	_, err = e.svc.AddChild(e.ctx, 7, 1, uuid.New(), model.ReviewCommentDraft{Content: "re"})
	assert.ErrorIs(t, err, apperr.ErrNoReviewFound)
	_, err = e.svc.CountParents(e.ctx, 7)
	assert.ErrorIs(t, err, apperr.ErrNoReviewFound)
}

func TestReplyChain(t *testing.T) {
	e := newTestEnv(t, false)
	c1 := e.parent(t, 42, "hi")

	c2 := e.child(t, 42, c1.CommentID, "re")
	require.NotNil(t, c2.GroupID)
	require.NotNil(t, c2.CommentRef)
	assert.Equal(t, c1.CommentID, *c2.GroupID)
	assert.Equal(t, c1.CommentID, *c2.CommentRef)

	_, err := e.svc.AddChild(e.ctx, 42, c2.CommentID, uuid.New(), model.ReviewCommentDraft{Content: "deeper"})
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)

	_, err = e.svc.AddChild(e.ctx, 42, 12345, uuid.New(), model.ReviewCommentDraft{Content: "lost"})
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
}

func TestAddChildWithSiblingRef(t *testing.T) {
	e := newTestEnv(t, false)
	root := e.parent(t, 42, "root")
	r1 := e.child(t, 42, root.CommentID, "first")

	ref := r1.CommentID
	r2, err := e.svc.AddChild(e.ctx, 42, root.CommentID, uuid.New(), model.ReviewCommentDraft{Content: "to first", CommentRef: &ref})
	require.NoError(t, err)
	assert.Equal(t, r1.CommentID, *r2.CommentRef)
	assert.Equal(t, root.CommentID, *r2.GroupID)

	other := e.parent(t, 42, "other")
	o1 := e.child(t, 42, other.CommentID, "elsewhere")
	foreign := o1.CommentID
	_, err = e.svc.AddChild(e.ctx, 42, root.CommentID, uuid.New(), model.ReviewCommentDraft{Content: "x", CommentRef: &foreign})
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)

	missing := int64(98765)
	_, err = e.svc.AddChild(e.ctx, 42, root.CommentID, uuid.New(), model.ReviewCommentDraft{Content: "x", CommentRef: &missing})
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
}

func TestGroupFromAnotherReviewRejected(t *testing.T) {
	e := newTestEnv(t, false)
	root := e.parent(t, 43, "root on 43")

	_, err := e.svc.GetChildren(e.ctx, 42, root.CommentID, 0, 10)
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
	_, err = e.svc.AddChild(e.ctx, 42, root.CommentID, uuid.New(), model.ReviewCommentDraft{Content: "re"})
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
}

func TestGetChildrenRequiresRoot(t *testing.T) {
	e := newTestEnv(t, false)
	root := e.parent(t, 42, "root")
	reply := e.child(t, 42, root.CommentID, "re")

	_, err := e.svc.GetChildren(e.ctx, 42, reply.CommentID, 0, 10)
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
	_, err = e.svc.GetChildren(e.ctx, 42, 4242, 0, 10)
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)

	children, err := e.svc.GetChildren(e.ctx, 42, root.CommentID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{reply.CommentID}, commentIDs(children))

	n, err := e.svc.CountChildren(e.ctx, 42, root.CommentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBlankContentRejected(t *testing.T) {
	e := newTestEnv(t, false)
	c1 := e.parent(t, 42, "hi")

	for _, blank := range []string{"", "   ", "\n\t"} {
		_, err := e.svc.Edit(e.ctx, c1.CommentID, nil, blank)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		_, err = e.svc.AddParent(e.ctx, 42, uuid.New(), model.ReviewCommentDraft{Content: blank})
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	}

	got, found, err := e.store.FindByID(e.ctx, c1.CommentID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hi", got.Content)
	assert.False(t, got.Updated)
}

func TestEditPersistsContent(t *testing.T) {
	e := newTestEnv(t, false)
	c1 := e.parent(t, 42, "hi")

	edited, err := e.svc.Edit(e.ctx, c1.CommentID, nil, "hello again")
	require.NoError(t, err)
	assert.Equal(t, "hello again", edited.Content)
	assert.True(t, edited.Updated)

	got, found, err := e.store.FindByID(e.ctx, c1.CommentID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello again", got.Content)
	assert.True(t, got.Updated)

	_, err = e.svc.Edit(e.ctx, 5555, nil, "nope")
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
}

func TestEditRetargetsRef(t *testing.T) {
	e := newTestEnv(t, false)
	root := e.parent(t, 42, "root")
	r1 := e.child(t, 42, root.CommentID, "1")
	r2 := e.child(t, 42, root.CommentID, "2")

	ref := r1.CommentID
	edited, err := e.svc.Edit(e.ctx, r2.CommentID, &ref, "2 -> 1")
	require.NoError(t, err)
	assert.Equal(t, r1.CommentID, *edited.CommentRef)

	back := root.CommentID
	edited, err = e.svc.Edit(e.ctx, r2.CommentID, &back, "2 -> root")
	require.NoError(t, err)
	assert.Equal(t, root.CommentID, *edited.CommentRef)

	missing := int64(31337)
	_, err = e.svc.Edit(e.ctx, r2.CommentID, &missing, "x")
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)

	other := e.parent(t, 42, "other")
	foreign := e.child(t, 42, other.CommentID, "o").CommentID
	_, err = e.svc.Edit(e.ctx, r2.CommentID, &foreign, "x")
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)

	self := r2.CommentID
	_, err = e.svc.Edit(e.ctx, r2.CommentID, &self, "x")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = e.svc.Edit(e.ctx, root.CommentID, &ref, "x")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	// 引用不存在时优先报告评论不存在
	_, err = e.svc.Edit(e.ctx, root.CommentID, &missing, "x")
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
}

func TestContentFiltered(t *testing.T) {
	e := newTestEnv(t, false)

	c, err := e.svc.AddParent(e.ctx, 42, uuid.New(), model.ReviewCommentDraft{Content: "no spoiler & it's fine"})
	require.NoError(t, err)
	assert.Equal(t, "no ******* & it's fine", c.Content)
}

func TestEditKeepsPlainTextVerbatim(t *testing.T) {
	e := newTestEnv(t, false)
	c := e.parent(t, 42, "hi")

	for _, text := range []string{"if x<y and y>z then", "&lt;script&gt;alert(1)&lt;/script&gt;"} {
		_, err := e.svc.Edit(e.ctx, c.CommentID, nil, text)
		require.NoError(t, err)
		got, found, err := e.store.FindByID(e.ctx, c.CommentID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, text, got.Content)
	}
}

func TestLikeClamp(t *testing.T) {
	e := newTestEnv(t, false)
	c1 := e.parent(t, 42, "hi")

	got, err := e.svc.Unlike(e.ctx, c1.CommentID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Likes)

	got, err = e.svc.Like(e.ctx, c1.CommentID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)

	_, err = e.svc.Like(e.ctx, 888)
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
	_, err = e.svc.Unlike(e.ctx, 888)
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
}

func TestInterleavedLikesRestoreCount(t *testing.T) {
	e := newTestEnv(t, false)
	c := e.parent(t, 42, "popular")

	const n = 20
	for i := 0; i < n; i++ {
		_, err := e.svc.Like(e.ctx, c.CommentID)
		require.NoError(t, err)
	}

	ops := make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		ops = append(ops, 1, -1)
	}
	rand.New(rand.NewSource(1)).Shuffle(len(ops), func(i, j int) { ops[i], ops[j] = ops[j], ops[i] })

	var wg sync.WaitGroup
	for _, op := range ops {
		wg.Add(1)
		go func(op int) {
			defer wg.Done()
			var err error
			if op > 0 {
				_, err = e.svc.Like(e.ctx, c.CommentID)
			} else {
				_, err = e.svc.Unlike(e.ctx, c.CommentID)
			}
			assert.NoError(t, err)
		}(op)
	}
	wg.Wait()

	got, found, err := e.store.FindByID(e.ctx, c.CommentID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, n, got.Likes)
}

func TestCascadeDelete(t *testing.T) {
	e := newTestEnv(t, false)
	c1 := e.parent(t, 42, "hi")
	c2 := e.child(t, 42, c1.CommentID, "re")

	removed, err := e.svc.Delete(e.ctx, c1.CommentID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{c1.CommentID, c2.CommentID}, removed)

	_, found, err := e.store.FindByID(e.ctx, c1.CommentID)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = e.store.FindByID(e.ctx, c2.CommentID)
	require.NoError(t, err)
	assert.False(t, found)

	children, err := e.store.FindChildren(e.ctx, c1.CommentID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = e.svc.Delete(e.ctx, c1.CommentID)
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)
}

func TestTombstoneDelete(t *testing.T) {
	e := newTestEnv(t, false, WithDeletePolicy(DeleteTombstone, "[deleted]"))
	root := e.parent(t, 42, "root")
	reply := e.child(t, 42, root.CommentID, "re")
	lonely := e.parent(t, 42, "no replies")

	removed, err := e.svc.Delete(e.ctx, root.CommentID)
	require.NoError(t, err)
	assert.Empty(t, removed)
	got, found, err := e.store.FindByID(e.ctx, root.CommentID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "[deleted]", got.Content)
	assert.False(t, got.Updated)

	children, err := e.svc.GetChildren(e.ctx, 42, root.CommentID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{reply.CommentID}, commentIDs(children))

	// 没有回复的父评论直接删除
	removed, err = e.svc.Delete(e.ctx, lonely.CommentID)
	require.NoError(t, err)
	assert.Equal(t, []int64{lonely.CommentID}, removed)
	_, found, err = e.store.FindByID(e.ctx, lonely.CommentID)
	require.NoError(t, err)
	assert.False(t, found)

	// 子评论直接删除
	removed, err = e.svc.Delete(e.ctx, reply.CommentID)
	require.NoError(t, err)
	assert.Equal(t, []int64{reply.CommentID}, removed)
	_, found, err = e.store.FindByID(e.ctx, reply.CommentID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOrderingTieBreak(t *testing.T) {
	e := newTestEnv(t, true)
	a := e.parent(t, 42, "a")
	b := e.parent(t, 42, "b")
	require.True(t, a.CreatedAt.Equal(b.CreatedAt))

	parents, err := e.svc.GetParents(e.ctx, 42, model.SortLatest, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.CommentID, a.CommentID}, commentIDs(parents))
}

func TestParentOrderings(t *testing.T) {
	e := newTestEnv(t, false)
	var all []*model.ReviewComment
	for i := 0; i < 6; i++ {
		all = append(all, e.parent(t, 42, "p"))
	}
	for i, c := range all {
		for j := 0; j < i%3; j++ {
			_, err := e.svc.Like(e.ctx, c.CommentID)
			require.NoError(t, err)
		}
	}

	latest, err := e.svc.GetParents(e.ctx, 42, model.SortLatest, 0, 10)
	require.NoError(t, err)
	for i := 1; i < len(latest); i++ {
		prev, cur := latest[i-1], latest[i]
		assert.True(t, prev.CreatedAt.After(cur.CreatedAt) ||
			(prev.CreatedAt.Equal(cur.CreatedAt) && prev.CommentID > cur.CommentID))
	}

	liked, err := e.svc.GetParents(e.ctx, 42, model.SortLike, 0, 10)
	require.NoError(t, err)
	for i := 1; i < len(liked); i++ {
		prev, cur := liked[i-1], liked[i]
		assert.True(t, prev.Likes > cur.Likes || (prev.Likes == cur.Likes && prev.CommentID > cur.CommentID))
	}
}

func TestPaginationConcatenation(t *testing.T) {
	e := newTestEnv(t, true)
	for i := 0; i < 9; i++ {
		e.parent(t, 42, "p")
	}

	const k = 3
	for _, order := range []model.ReviewCommentSortOrder{model.SortLatest, model.SortLike} {
		p0, err := e.svc.GetParents(e.ctx, 42, order, 0, k)
		require.NoError(t, err)
		p1, err := e.svc.GetParents(e.ctx, 42, order, 1, k)
		require.NoError(t, err)
		both, err := e.svc.GetParents(e.ctx, 42, order, 0, 2*k)
		require.NoError(t, err)
		assert.Equal(t, commentIDs(both), append(commentIDs(p0), commentIDs(p1)...))
	}
}

func TestPagingArgumentsRejected(t *testing.T) {
	e := newTestEnv(t, false)

	_, err := e.svc.GetParents(e.ctx, 42, model.SortLatest, -1, 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = e.svc.GetParents(e.ctx, 42, model.SortLatest, 0, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = e.svc.GetChildren(e.ctx, 42, 1, 0, -1)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestTreeShapeInvariants(t *testing.T) {
	e := newTestEnv(t, false)
	for i := 0; i < 3; i++ {
		root := e.parent(t, 42, "root")
		for j := 0; j < 3; j++ {
			e.child(t, 42, root.CommentID, "reply")
		}
	}

	parents, err := e.svc.GetParents(e.ctx, 42, model.SortLatest, 0, 100)
	require.NoError(t, err)
	for _, p := range parents {
		assert.Equal(t, p.GroupID == nil, p.CommentRef == nil)
		children, err := e.svc.GetChildren(e.ctx, 42, p.CommentID, 0, 100)
		require.NoError(t, err)
		for _, c := range children {
			require.NotNil(t, c.GroupID)
			require.NotNil(t, c.CommentRef)
			root, found, err := e.store.FindByID(e.ctx, *c.GroupID)
			require.NoError(t, err)
			require.True(t, found)
			assert.Nil(t, root.GroupID)
		}
	}
}

func TestDoesUserOwnComment(t *testing.T) {
	e := newTestEnv(t, false)
	author := uuid.New()
	c, err := e.svc.AddParent(e.ctx, 42, author, model.ReviewCommentDraft{Content: "mine"})
	require.NoError(t, err)

	owns, err := e.svc.DoesUserOwnComment(e.ctx, 42, c.CommentID, author)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = e.svc.DoesUserOwnComment(e.ctx, 42, c.CommentID, uuid.New())
	require.NoError(t, err)
	assert.False(t, owns)

	_, err = e.svc.DoesUserOwnComment(e.ctx, 42, 1000, author)
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)

	// 评论不属于路径中的影评
	_, err = e.svc.DoesUserOwnComment(e.ctx, 43, c.CommentID, author)
	assert.ErrorIs(t, err, apperr.ErrNoReviewCommentFound)

	got, err := e.svc.GetComment(e.ctx, 42, c.CommentID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Content)
}

type brokenAnchor struct{}

func (brokenAnchor) Exists(ctx context.Context, reviewID int64) (bool, error) {
	return false, apperr.StorageFault("check review existence", errors.New("connection refused"))
}

func TestAnchorFailurePropagates(t *testing.T) {
	e := newTestEnv(t, false)
	svc := NewReviewCommentService(e.store, brokenAnchor{}, NewTextFilter())

	_, err := svc.GetParents(e.ctx, 42, model.SortLatest, 0, 10)
	assert.ErrorIs(t, err, apperr.ErrStorageFault)
}

func TestParseDeletePolicy(t *testing.T) {
	p, err := ParseDeletePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DeleteCascade, p)

	p, err = ParseDeletePolicy("Tombstone")
	require.NoError(t, err)
	assert.Equal(t, DeleteTombstone, p)

	_, err = ParseDeletePolicy("soft")
	assert.Error(t, err)
}
