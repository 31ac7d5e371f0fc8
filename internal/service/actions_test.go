package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

func TestActionChannel_SendReceive(t *testing.T) {
	c := NewActionChannel(2)
	defer c.Close()

	assert.True(t, c.Send(domain.PlayAction{}))
	assert.True(t, c.Send(domain.SkipToAction{Position: 3}))
	assert.False(t, c.Send(nil))

	assert.Equal(t, domain.PlayAction{}, <-c.Receive())
	assert.Equal(t, domain.SkipToAction{Position: 3}, <-c.Receive())
}

func TestActionChannel_SendAfterClose(t *testing.T) {
	c := NewActionChannel(1)
	c.Close()
	c.Close()

	assert.False(t, c.Send(domain.PlayAction{}))
	select {
	case <-c.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestActionChannel_CloseUnblocksSend(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := NewActionChannel(0)
	result := make(chan bool)
	go func() {
		result <- c.Send(domain.PauseAction{})
	}()

	select {
	case <-result:
		t.Fatal("send on a full channel returned early")
	case <-time.After(20 * time.Millisecond):
	}

	c.Close()
	assert.False(t, <-result)
}
