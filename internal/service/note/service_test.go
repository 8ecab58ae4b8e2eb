package note

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/metrics"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/retrieval"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

type harness struct {
	svc   *Service
	repo  *memRepo
	index *flakyIndex
	emb   *keywordEmbedder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := newMemRepo()
	index := newFlakyIndex()
	emb := &keywordEmbedder{}
	return &harness{
		svc:   NewService(slog.Default(), repo, index, emb, fakeTx{repo: repo}),
		repo:  repo,
		index: index,
		emb:   emb,
	}
}

func asUser(id string) context.Context {
	return ctxutil.WithUserID(context.Background(), id)
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_ThenRetrieve(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := asUser("alice")

	created, err := h.svc.Create(ctx, domain.NoteInput{Title: "  Hiking plan ", Content: strPtr("hike the ridge on saturday")})
	require.NoError(t, err)
	assert.Equal(t, "Hiking plan", created.Title)
	assert.Equal(t, "alice", created.UserID)

	_, err = h.svc.Create(ctx, domain.NoteInput{Title: "Dinner", Content: strPtr("cook pasta")})
	require.NoError(t, err)

	r := retrieval.NewRetriever(slog.Default(), h.index, h.repo, nil, 1)
	notesTag := domain.IntentNotes
	query, _ := h.emb.Embed(ctx, "where do I hike?")

	got, err := r.Retrieve(ctx, retrieval.Query{Embedding: query, UserID: "alice", Domain: &notesTag})
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, created.ID, got.Notes[0].ID)

	assert.Equal(t, "Hiking plan\n\nhike the ridge on saturday", h.emb.Calls()[0])
}

func TestCreate_IndexFailureRollsBack(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.index.failUpsert = true

	_, err := h.svc.Create(asUser("alice"), domain.NoteInput{Title: "t"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDualWrite))
	assert.True(t, errors.Is(err, errIndexDown))

	assert.Zero(t, h.repo.len(), "row must be rolled back")
	assert.Zero(t, h.index.Len())
}

func TestCreate_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), domain.NoteInput{Title: "t"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, h.emb.Calls())
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.svc.Create(asUser("alice"), domain.NoteInput{Title: "   "})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Errors[0].Field)
	assert.Empty(t, h.emb.Calls())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_ReindexesNote(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := asUser("alice")
	n, err := h.svc.Create(ctx, domain.NoteInput{Title: "hike"})
	require.NoError(t, err)

	updated, err := h.svc.Update(ctx, UpdateInput{ID: n.ID, NoteInput: domain.NoteInput{Title: "cooking", Content: strPtr("cook rice")}})
	require.NoError(t, err)
	assert.Equal(t, "cooking", updated.Title)

	matches, err := h.index.Query(ctx, domain.VectorQuery{
		Vector: []float32{0, 1, 0},
		TopK:   1,
		Filter: map[string]string{domain.MetaUserID: "alice"},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, n.ID, matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 0.01)
}

func TestUpdate_NonOwnerChangesNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	n, err := h.svc.Create(asUser("alice"), domain.NoteInput{Title: "hike"})
	require.NoError(t, err)
	upsertsBefore := h.index.upsertCalls
	embedsBefore := len(h.emb.Calls())

	_, err = h.svc.Update(asUser("mallory"), UpdateInput{ID: n.ID, NoteInput: domain.NoteInput{Title: "pwned"}})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	stored, ok := h.repo.get(n.ID)
	require.True(t, ok)
	assert.Equal(t, "hike", stored.Title)
	assert.Equal(t, upsertsBefore, h.index.upsertCalls)
	assert.Len(t, h.emb.Calls(), embedsBefore)
}

func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.svc.Update(asUser("alice"), UpdateInput{ID: uuid.New(), NoteInput: domain.NoteInput{Title: "x"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_IndexFailureKeepsOldRow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := asUser("alice")
	n, err := h.svc.Create(ctx, domain.NoteInput{Title: "hike"})
	require.NoError(t, err)

	h.index.failUpsert = true
	_, err = h.svc.Update(ctx, UpdateInput{ID: n.ID, NoteInput: domain.NoteInput{Title: "cook"}})
	assert.ErrorIs(t, err, domain.ErrDualWrite)

	stored, _ := h.repo.get(n.ID)
	assert.Equal(t, "hike", stored.Title)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_RemovesBothEntries(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := asUser("alice")
	n, err := h.svc.Create(ctx, domain.NoteInput{Title: "hike"})
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(ctx, n.ID))
	assert.Zero(t, h.repo.len())
	assert.Zero(t, h.index.Len())
}

func TestDelete_SurvivesIndexFailure(t *testing.T) {
	// not parallel: reads a process-wide counter
	h := newHarness(t)
	ctx := asUser("alice")
	n, err := h.svc.Create(ctx, domain.NoteInput{Title: "hike"})
	require.NoError(t, err)

	failuresBefore := testutil.ToFloat64(metrics.VectorDeleteFailures.WithLabelValues("notes"))
	h.index.failDelete = true

	require.NoError(t, h.svc.Delete(ctx, n.ID))
	assert.Zero(t, h.repo.len())
	assert.Equal(t, 1, h.index.Len(), "orphaned entry stays until reindex")
	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(metrics.VectorDeleteFailures.WithLabelValues("notes")))
}

func TestDelete_Ownership(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	n, err := h.svc.Create(asUser("alice"), domain.NoteInput{Title: "hike"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.svc.Delete(asUser("bob"), n.ID), domain.ErrUnauthorized)
	assert.ErrorIs(t, h.svc.Delete(asUser("alice"), uuid.New()), domain.ErrNotFound)
	assert.Equal(t, 1, h.repo.len())
	assert.Equal(t, 1, h.index.Len())
}

// ---------------------------------------------------------------------------
// List / Reindex
// ---------------------------------------------------------------------------

func TestList(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for _, title := range []string{"a", "b", "c"} {
		_, err := h.svc.Create(asUser("alice"), domain.NoteInput{Title: title})
		require.NoError(t, err)
	}
	_, err := h.svc.Create(asUser("bob"), domain.NoteInput{Title: "d"})
	require.NoError(t, err)

	notes, total, err := h.svc.List(asUser("alice"), ListInput{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, notes, 2)

	_, _, err = h.svc.List(asUser("alice"), ListInput{Limit: 500})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReindex_RestoresMissingEntries(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.repo.put(domain.Note{ID: uuid.New(), UserID: "alice", Title: "hike"})
	}
	h.repo.put(domain.Note{ID: uuid.New(), UserID: "bob", Title: "cook"})

	n, err := h.svc.Reindex(context.Background(), "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, h.index.Len())

	n, err = h.svc.Reindex(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, h.index.Len())
}
