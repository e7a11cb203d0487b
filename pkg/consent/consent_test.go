package consent

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWithoutAnswer(t *testing.T) {
	s := New()
	prefs, ok := s.Read()
	assert.False(t, ok)
	assert.Equal(t, Prefs{Necessary: true}, prefs)
}

func TestWriteForcesNecessary(t *testing.T) {
	s := New()
	require.NoError(t, s.Write(Prefs{Necessary: false, Marketing: false}))

	prefs, ok := s.Read()
	assert.True(t, ok)
	assert.True(t, prefs.Necessary)
	assert.False(t, prefs.Marketing)
}

func TestEnableMarketingNotifiesSubscribers(t *testing.T) {
	s := New()
	a, cancelA := s.Subscribe()
	defer cancelA()
	b, cancelB := s.Subscribe()
	defer cancelB()

	require.NoError(t, s.EnableMarketing())

	want := Prefs{Necessary: true, Marketing: true}
	assert.Equal(t, want, <-a)
	assert.Equal(t, want, <-b)
}

func TestSlowSubscriberGetsLatest(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Write(Prefs{Marketing: true}))
	require.NoError(t, s.Write(Prefs{Marketing: false}))
	require.NoError(t, s.Write(Prefs{Marketing: true}))

	assert.Equal(t, Prefs{Necessary: true, Marketing: true}, <-ch)
	select {
	case p := <-ch:
		t.Fatalf("unexpected extra value %+v", p)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	require.NoError(t, s.EnableMarketing())
}

func TestConcurrentWritesAndCancels(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Write(Prefs{Marketing: i%2 == 0}))
		}(i)
		go func() {
			defer wg.Done()
			_, cancel := s.Subscribe()
			cancel()
		}()
	}
	wg.Wait()

	_, ok := s.Read()
	assert.True(t, ok)
}

func TestOpenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consent.json")

	s, err := Open(path)
	require.NoError(t, err)
	_, ok := s.Read()
	assert.False(t, ok)
	require.NoError(t, s.EnableMarketing())

	reopened, err := Open(path)
	require.NoError(t, err)
	prefs, ok := reopened.Read()
	assert.True(t, ok)
	assert.True(t, prefs.Marketing)
}

func TestOpenStaleVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":0,"prefs":{"necessary":true,"marketing":true}}`), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	prefs, ok := s.Read()
	assert.False(t, ok)
	assert.False(t, prefs.Marketing)
}

func TestOpenGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consent.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	_, ok := s.Read()
	assert.False(t, ok)
}
