// Package visibility computes what each viewer is allowed to see of a
// stored message: the effective status reported to them and whether an
// attached image must be blurred before delivery.
package visibility

import (
	"strings"

	"privacy-chat/internal/models"
)

// Resolution is the per-viewer outcome for one message. Restricted
// reports whether the viewer is ineligible for the original payload;
// for image attachments that implies MustRedact, for anything else the
// transport layer decides how to refuse.
type Resolution struct {
	EffectiveStatus string
	MustRedact      bool
	Restricted      bool
}

// Resolve computes the effective status and redaction requirement of
// msg for the given viewer. It must be re-evaluated per request: the
// same message resolves differently for different viewers, and a status
// toggle changes the outcome for subsequent requests.
//
// A private message is visible only to its sender and receiver; anyone
// else sees it marked invalid. A private message without a receiver
// degrades to sender-only visibility. For public messages an invalid
// status is shown to everyone except the sender, who always sees their
// own content as sent.
func Resolve(msg *models.Message, viewer string) Resolution {
	restricted := false
	if msg.Private {
		if viewer != msg.Sender && (msg.Receiver == nil || viewer != *msg.Receiver) {
			restricted = true
		}
	} else if viewer != msg.Sender && msg.Status == models.StatusInvalid {
		restricted = true
	}

	effective := msg.Status
	if restricted {
		effective = models.StatusInvalid
	}

	// Redaction only ever applies to restricted viewers; the author of
	// an invalid public message keeps seeing the unblurred original.
	mustRedact := restricted &&
		msg.ContentType != nil && strings.HasPrefix(*msg.ContentType, "image/")

	return Resolution{EffectiveStatus: effective, MustRedact: mustRedact, Restricted: restricted}
}

// Annotate returns a copy of msg with its status field rewritten to the
// viewer's effective status. The stored message is never mutated.
func Annotate(msg *models.Message, viewer string) *models.Message {
	out := *msg
	out.Status = Resolve(msg, viewer).EffectiveStatus
	return &out
}
