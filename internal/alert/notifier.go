package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/perbu/sessmon/internal/async"
)

// Notifier watches load outcomes and emails the operator once the number of
// consecutive failures reaches the threshold. A success resets the count; a
// new alert fires only after the streak has been reset and builds up again.
//
// Observe runs on the owning context, so the actual send happens on a
// separate goroutine to keep the context responsive.
type Notifier struct {
	sender        Sender
	to            string
	subjectPrefix string
	threshold     int

	consecutive int
	sendTimeout time.Duration
}

// NewNotifier creates a Notifier. threshold values below 1 are treated as 1.
func NewNotifier(sender Sender, to, subjectPrefix string, threshold int) *Notifier {
	if threshold < 1 {
		threshold = 1
	}
	return &Notifier{
		sender:        sender,
		to:            to,
		subjectPrefix: subjectPrefix,
		threshold:     threshold,
		sendTimeout:   30 * time.Second,
	}
}

// Observe feeds a load status event into the failure streak.
func (n *Notifier) Observe(st async.Status) {
	switch st.State {
	case async.StateSucceeded:
		n.consecutive = 0
	case async.StateFailed:
		n.consecutive++
		if n.consecutive == n.threshold {
			n.alert(st)
		}
	}
}

func (n *Notifier) alert(st async.Status) {
	email := Email{
		To:      n.to,
		Subject: fmt.Sprintf("%s background load failing", n.subjectPrefix),
		TextContent: fmt.Sprintf(
			"The session list reload has failed %d times in a row.\n\nLast task id: %d\nLast error: %v\n",
			n.consecutive, st.ID, st.Err,
		),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
		defer cancel()
		if _, err := n.sender.Send(ctx, email); err != nil {
			slog.Error("failed to send failure alert", "error", err)
			return
		}
		slog.Info("sent failure alert", "to", n.to, "failures", n.threshold)
	}()
}
