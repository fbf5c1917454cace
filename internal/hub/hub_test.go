package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"privacy-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	writes []models.Envelope
	err    error
}

func (c *fakeConn) WriteJSON(v any) error {
	if c.err != nil {
		return c.err
	}
	c.writes = append(c.writes, v.(models.Envelope))
	return nil
}

func (c *fakeConn) last(t *testing.T) models.Envelope {
	t.Helper()
	require.NotEmpty(t, c.writes)
	return c.writes[len(c.writes)-1]
}

func strPtr(s string) *string { return &s }

func TestRegisterBroadcastsRoster(t *testing.T) {
	h := NewHub(zap.NewNop())
	alice, bob := &fakeConn{}, &fakeConn{}

	h.Connect(alice)
	h.Connect(bob)
	h.Register(alice, "alice")
	h.Register(bob, "bob")

	assert.Equal(t, []string{"alice", "bob"}, h.Usernames())

	// Both connections, registered or not at the time, received rosters.
	env := bob.last(t)
	assert.Equal(t, models.EnvelopeUserList, env.Type)
	assert.Equal(t, []string{"alice", "bob"}, env.Data)
}

func TestReRegisterOverwritesUsername(t *testing.T) {
	h := NewHub(zap.NewNop())
	conn := &fakeConn{}

	h.Connect(conn)
	h.Register(conn, "alice")
	h.Register(conn, "alicia")

	assert.Equal(t, []string{"alicia"}, h.Usernames())
}

func TestDisconnectRemovesAndBroadcasts(t *testing.T) {
	h := NewHub(zap.NewNop())
	alice, bob := &fakeConn{}, &fakeConn{}

	h.Connect(alice)
	h.Connect(bob)
	h.Register(alice, "alice")
	h.Register(bob, "bob")

	h.Disconnect(alice)

	assert.Equal(t, []string{"bob"}, h.Usernames())
	env := bob.last(t)
	assert.Equal(t, models.EnvelopeUserList, env.Type)
	assert.Equal(t, []string{"bob"}, env.Data)
}

func TestBroadcastPersonalized_PrivateStatusRewrite(t *testing.T) {
	h := NewHub(zap.NewNop())
	alice, bob, carol := &fakeConn{}, &fakeConn{}, &fakeConn{}

	h.Connect(alice)
	h.Connect(bob)
	h.Connect(carol)
	h.Register(alice, "alice")
	h.Register(bob, "bob")
	h.Register(carol, "carol")

	msg := &models.Message{
		ID:       "m1",
		Sender:   "alice",
		Receiver: strPtr("bob"),
		Private:  true,
		Text:     "just between us",
		Status:   models.StatusValid,
	}
	h.BroadcastPersonalized(models.EnvelopeMessage, msg)

	for conn, want := range map[*fakeConn]string{
		alice: models.StatusValid,
		bob:   models.StatusValid,
		carol: models.StatusInvalid,
	} {
		env := conn.last(t)
		assert.Equal(t, models.EnvelopeMessage, env.Type)
		got := env.Data.(*models.Message)
		assert.Equal(t, want, got.Status)
		// Content travels unchanged; only the status annotation differs.
		assert.Equal(t, "just between us", got.Text)
	}

	assert.Equal(t, models.StatusValid, msg.Status, "stored message must not be mutated")
}

func TestBroadcastPersonalized_DeadConnectionSkipped(t *testing.T) {
	h := NewHub(zap.NewNop())
	dead := &fakeConn{err: errors.New("broken pipe")}
	alive := &fakeConn{}

	h.Connect(dead)
	h.Connect(alive)
	h.Register(alive, "bob")

	msg := &models.Message{ID: "m1", Sender: "alice", Status: models.StatusValid}
	h.BroadcastPersonalized(models.EnvelopeMessage, msg)

	// The failing delivery must not prevent the remaining one.
	env := alive.last(t)
	assert.Equal(t, models.EnvelopeMessage, env.Type)
}

// trackingConn records how many writers are inside WriteJSON at once.
// The sleep widens the window so an unserialized fan-out overlaps.
type trackingConn struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	writes  int
}

func (c *trackingConn) WriteJSON(v any) error {
	c.mu.Lock()
	c.active++
	if c.active > c.maxSeen {
		c.maxSeen = c.active
	}
	c.mu.Unlock()

	time.Sleep(time.Millisecond)

	c.mu.Lock()
	c.active--
	c.writes++
	c.mu.Unlock()
	return nil
}

func TestConcurrentBroadcastsSerializePerConnection(t *testing.T) {
	h := NewHub(zap.NewNop())
	conn := &trackingConn{}
	h.Connect(conn)
	h.Register(conn, "alice")

	msg := &models.Message{ID: "m1", Sender: "alice", Status: models.StatusValid}

	const broadcasts = 16
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				h.BroadcastPersonalized(models.EnvelopeMessage, msg)
			} else {
				h.BroadcastUserList()
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, conn.maxSeen, 1, "at most one writer may be inside WriteJSON at a time")
	// Register pushed one roster before the concurrent broadcasts.
	assert.Equal(t, broadcasts+1, conn.writes)
}

func TestSendSerializesWithBroadcasts(t *testing.T) {
	h := NewHub(zap.NewNop())
	conn := &trackingConn{}
	h.Connect(conn)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Send(conn, models.Envelope{Type: models.EnvelopeUserList, Data: []string{}}))
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.BroadcastUserList()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, conn.maxSeen, 1, "at most one writer may be inside WriteJSON at a time")
}
