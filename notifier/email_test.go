package notifier

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/models"
)

func TestEmailNotifySendsMultipartDigest(t *testing.T) {
	config.AppConfig.SMTP = config.SMTPConfig{
		Host: "smtp.test", Port: "587", From: "noreply@test",
		Username: "noreply@test", Password: "secret",
	}

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n := &EmailNotifier{send: func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}}

	owner := models.User{ID: 1, Email: "diver@example.com"}
	err := n.Notify(context.Background(), owner, digestBBox(), makeRecords(models.SourceMBES, 3))
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:587", gotAddr)
	assert.Equal(t, "noreply@test", gotFrom)
	assert.Equal(t, []string{"diver@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: There is new NOAA data available for bbox #42!")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "text/plain")
	assert.Contains(t, msg, "text/html")
	assert.Contains(t, msg, "BBOX #42")
}

func TestEmailNotifyTransportFailure(t *testing.T) {
	config.AppConfig.SMTP = config.SMTPConfig{Host: "smtp.test", Port: "587", From: "noreply@test"}

	n := &EmailNotifier{send: func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}}

	owner := models.User{ID: 1, Email: "diver@example.com"}
	err := n.Notify(context.Background(), owner, digestBBox(), makeRecords(models.SourceMBES, 1))
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestEmailNotifyStalledServerHonorsDeadline(t *testing.T) {
	// A server that accepts the connection but never sends the SMTP greeting.
	// The context deadline must bound the whole conversation so one dead SMTP
	// server cannot wedge the sequential poll cycle.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	host, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	config.AppConfig.SMTP = config.SMTPConfig{Host: host, Port: port, From: "noreply@test"}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = NewEmailNotifier().Notify(ctx, models.User{ID: 1, Email: "diver@example.com"},
		digestBBox(), makeRecords(models.SourceMBES, 1))

	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Less(t, time.Since(start), 2*time.Second, "send must give up at the context deadline")
}

func TestEmailNotifyNoAddress(t *testing.T) {
	n := NewEmailNotifier()
	err := n.Notify(context.Background(), models.User{ID: 1}, digestBBox(), makeRecords(models.SourceMBES, 1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeliveryFailed)
}
