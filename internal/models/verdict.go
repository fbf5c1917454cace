package models

// Verdict statuses for a single judged frame. Unlike message statuses,
// a frame judgment may also end in "error" when the frame could not be
// processed at all.
const (
	VerdictValid   = "valid"
	VerdictInvalid = "invalid"
	VerdictError   = "error"
)

// Rect is a detection bounding box in pixel coordinates.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Detection is a single labeled box returned by the object detection
// provider for one frame.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        *Rect   `json:"box,omitempty"`
}

// FrameVerdict is the outcome of judging one frame against privacy
// policy. It is returned to the submitting connection and never
// persisted.
type FrameVerdict struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Persons    int    `json:"persons"`
	Authorized *int   `json:"authorized,omitempty"`
	MessageID  string `json:"message_id,omitempty"`
}

// FrameJudgmentRequest is one inbound frame plus its judgment options.
type FrameJudgmentRequest struct {
	Frame         string `json:"frame"` // base64-encoded image
	FaceAuth      bool   `json:"faceAuth"`
	RequireSingle bool   `json:"requireSingle"`
	MessageID     string `json:"message_id,omitempty"`
}
