package validator

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"

	// Frame formats accepted on the judgment socket.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"privacy-chat/internal/facematch"
	"privacy-chat/internal/models"

	"go.uber.org/zap"
)

// DetectionProvider is the object detection capability the validator
// judges frames with. detector.Client satisfies it.
type DetectionProvider interface {
	Detect(ctx context.Context, frame []byte) ([]models.Detection, error)
}

// Judge decodes one frame, consults the capability providers, and
// evaluates the verdict. Every failure collapses to an "error" verdict;
// this is a terminal, reported outcome for the single frame, never a
// panic and never a retry. The next frame is judged independently.
func (v *Validator) Judge(ctx context.Context, req models.FrameJudgmentRequest) models.FrameVerdict {
	verdict := v.judge(ctx, req)
	verdict.MessageID = req.MessageID
	return verdict
}

func (v *Validator) judge(ctx context.Context, req models.FrameJudgmentRequest) models.FrameVerdict {
	frame, err := base64.StdEncoding.DecodeString(req.Frame)
	if err != nil {
		return models.FrameVerdict{Status: models.VerdictError, Message: "Failed to decode frame"}
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(frame)); err != nil {
		return models.FrameVerdict{Status: models.VerdictError, Message: "Failed to decode frame"}
	}

	detections, err := v.detector.Detect(ctx, frame)
	if err != nil {
		v.logger.Warn("Object detection failed", zap.Error(err))
		return models.FrameVerdict{Status: models.VerdictError, Message: err.Error()}
	}

	var faces []facematch.Encoding
	if req.FaceAuth && v.set.Size() > 0 {
		// Face matching operates on face regions of the full frame,
		// independent of the person boxes above.
		faces, err = v.faces.Encode(ctx, frame)
		if err != nil {
			v.logger.Warn("Face encoding failed", zap.Error(err))
			return models.FrameVerdict{Status: models.VerdictError, Message: err.Error()}
		}
	}

	return v.Evaluate(detections, faces, req.FaceAuth, req.RequireSingle)
}
