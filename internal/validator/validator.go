package validator

import (
	"fmt"
	"strings"

	"privacy-chat/internal/facematch"
	"privacy-chat/internal/models"

	"go.uber.org/zap"
)

// Options are the policy knobs for frame validation, supplied from
// configuration and fixed for the lifetime of a Validator.
type Options struct {
	ConfidenceThreshold float64
	FaceTolerance       float64
	ViolatingObjects    []string
}

// Validator turns raw detector and face matching outputs into a frame
// verdict. The authorized set is read-only, so one Validator is shared
// by all pool workers.
type Validator struct {
	detector  DetectionProvider
	faces     facematch.Provider
	set       *facematch.AuthorizedSet
	opts      Options
	violating map[string]bool
	logger    *zap.Logger
}

// NewValidator creates a validator over the given capability providers.
func NewValidator(det DetectionProvider, faces facematch.Provider, set *facematch.AuthorizedSet, opts Options, logger *zap.Logger) *Validator {
	violating := make(map[string]bool, len(opts.ViolatingObjects))
	for _, label := range opts.ViolatingObjects {
		violating[strings.ToLower(strings.TrimSpace(label))] = true
	}
	return &Validator{
		detector:  det,
		faces:     faces,
		set:       set,
		opts:      opts,
		violating: violating,
		logger:    logger,
	}
}

// Evaluate computes the verdict for one frame's detector outputs.
//
// A visible recording device disqualifies the frame in every branch,
// independent of who is present. Person count and face authorization
// are orthogonal axes combined by requireSingle (exactly one vs at
// least one), identically in both authentication modes.
func (v *Validator) Evaluate(detections []models.Detection, faces []facematch.Encoding, faceAuth, requireSingle bool) models.FrameVerdict {
	var persons int
	var devices []string
	seen := make(map[string]bool)

	for _, d := range detections {
		if d.Confidence < v.opts.ConfidenceThreshold {
			continue
		}
		label := strings.ToLower(d.Label)
		if label == "person" {
			persons++
		} else if v.violating[label] && !seen[label] {
			seen[label] = true
			devices = append(devices, label)
		}
	}

	if !faceAuth {
		if len(devices) > 0 {
			return models.FrameVerdict{
				Status:  models.VerdictInvalid,
				Message: "Device detected: " + strings.Join(devices, ", "),
				Persons: persons,
			}
		}

		if requireSingle {
			switch persons {
			case 1:
				return models.FrameVerdict{Status: models.VerdictValid, Message: "Privacy maintained", Persons: persons}
			case 0:
				return models.FrameVerdict{Status: models.VerdictInvalid, Message: "No people detected", Persons: persons}
			default:
				return models.FrameVerdict{Status: models.VerdictInvalid, Message: fmt.Sprintf("%d people (need 1)", persons), Persons: persons}
			}
		}
		if persons >= 1 {
			return models.FrameVerdict{Status: models.VerdictValid, Message: "Privacy maintained", Persons: persons}
		}
		return models.FrameVerdict{Status: models.VerdictInvalid, Message: "No people detected", Persons: persons}
	}

	if v.set.Size() == 0 {
		return models.FrameVerdict{Status: models.VerdictInvalid, Message: "No authorized faces", Persons: persons}
	}

	authorized := v.set.CountMatches(faces, v.opts.FaceTolerance)
	unauthorized := len(faces) - authorized

	if len(devices) > 0 {
		return models.FrameVerdict{
			Status:     models.VerdictInvalid,
			Message:    "Device detected: " + strings.Join(devices, ", "),
			Persons:    persons,
			Authorized: &authorized,
		}
	}

	if unauthorized > 0 {
		return models.FrameVerdict{
			Status:     models.VerdictInvalid,
			Message:    fmt.Sprintf("%d unauthorized person(s)", unauthorized),
			Persons:    persons,
			Authorized: &authorized,
		}
	}

	if requireSingle {
		if persons == 1 && authorized == 1 {
			return models.FrameVerdict{
				Status:     models.VerdictValid,
				Message:    "Authenticated - Privacy maintained",
				Persons:    persons,
				Authorized: &authorized,
			}
		}
		return models.FrameVerdict{
			Status:     models.VerdictInvalid,
			Message:    "Single authorized person required",
			Persons:    persons,
			Authorized: &authorized,
		}
	}

	if persons >= 1 {
		return models.FrameVerdict{
			Status:     models.VerdictValid,
			Message:    "Authenticated - Privacy maintained",
			Persons:    persons,
			Authorized: &authorized,
		}
	}
	return models.FrameVerdict{
		Status:     models.VerdictInvalid,
		Message:    "All persons must be authorized",
		Persons:    persons,
		Authorized: &authorized,
	}
}
