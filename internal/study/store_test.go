package study

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyguideai/internal/quiz"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), mr
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := NewSession()
	s.LoadDocument("notes.PDF", "text")
	s.Install("m", "# g", "<h1>g</h1>", []quiz.Item{{Question: "q", Options: []string{"a", "b"}, Answer: "a"}})
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", got.Title)
	assert.Equal(t, "# g", got.Guide)
	require.Len(t, got.Quiz.Items, 1)

	updated, err := store.Update(ctx, s.ID, func(s *Session) error {
		return s.Quiz.Select(0, "a")
	})
	require.NoError(t, err)
	assert.Equal(t, "a", updated.Quiz.Answers[0])

	got, err = store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "a"}, got.Quiz.Answers)

	boom := errors.New("boom")
	_, err = store.Update(ctx, s.ID, func(s *Session) error {
		s.Title = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, err = store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", got.Title)

	_, err = store.Update(ctx, "nope", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	exerciseStore(t, store)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	s := NewSession()
	require.NoError(t, store.Save(context.Background(), s))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	_, err := store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	s := NewSession()
	require.NoError(t, store.Save(context.Background(), s))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestViewHidesAnswersUntilGraded(t *testing.T) {
	s := NewSession()
	s.Install("m", "# Heading\n\ntext", "", []quiz.Item{
		{Question: "q1", Options: []string{"a", "b"}, Answer: "a"},
		{Question: "q2", Options: []string{"a", "b"}, Answer: "b"},
	})
	require.NoError(t, s.Quiz.Select(0, "a"))

	v := s.View()
	require.Len(t, v.Quiz, 2)
	assert.Empty(t, v.Quiz[0].Answer)
	assert.Equal(t, "a", v.Quiz[0].Selected)
	assert.Nil(t, v.Result)
	assert.Equal(t, []string{"Heading"}, v.Headings)

	s.Quiz.Grade()
	v = s.View()
	assert.Equal(t, "a", v.Quiz[0].Answer)
	require.NotNil(t, v.Result)
	assert.Equal(t, 50, v.Result.Percentage)
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "Lecture 3", TitleFromFilename("Lecture 3.pdf"))
	assert.Equal(t, "scan", TitleFromFilename("scan.PDF"))
	assert.Equal(t, "notes.txt", TitleFromFilename("notes.txt"))
}
