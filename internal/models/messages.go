package models

import "fmt"

// RequestType identifies the kind of message a host sends to a worker.
// The set is closed: dispatch sites switch exhaustively and treat anything
// else as a protocol error.
type RequestType string

const (
	RequestInit       RequestType = "init"
	RequestClassify   RequestType = "classify"
	RequestSentiment  RequestType = "sentiment"
	RequestGenerate   RequestType = "generate"
	RequestAdd        RequestType = "add"
	RequestSearch     RequestType = "search"
	RequestDetect     RequestType = "detect"
	RequestTranscribe RequestType = "transcribe"
)

// Request is the host-to-worker message envelope. Exactly one payload pointer
// is set for non-init requests; init carries no payload.
type Request struct {
	Type       RequestType        `json:"type"`
	Classify   *ClassifyPayload   `json:"classify,omitempty"`
	Sentiment  *SentimentPayload  `json:"sentiment,omitempty"`
	Generate   *GeneratePayload   `json:"generate,omitempty"`
	Add        *AddPayload        `json:"add,omitempty"`
	Search     *SearchPayload     `json:"search,omitempty"`
	Detect     *DetectPayload     `json:"detect,omitempty"`
	Transcribe *TranscribePayload `json:"transcribe,omitempty"`
}

// ClassifyPayload carries a zero-shot classification request. Labels are
// caller-supplied candidate categories; scoring is multi-label, so scores
// need not sum to 1.
type ClassifyPayload struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

// SentimentPayload carries a sentiment classification request.
type SentimentPayload struct {
	Text string `json:"text"`
}

// GeneratePayload carries a text continuation request. Text is the context
// to continue from.
type GeneratePayload struct {
	Text string `json:"text"`
}

// AddPayload carries a document to ingest into the semantic index.
// SourceType selects content normalization before chunking: "text" (default),
// "web"/"html", "markdown", "pdf", or "reference" for pre-seeded works that
// tolerate a higher minimum-chunk threshold. PDF documents arrive as raw
// bytes in Data; everything else as Text.
type AddPayload struct {
	Text       string `json:"text,omitempty"`
	Data       []byte `json:"data,omitempty"`
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type,omitempty"`
}

// SearchPayload carries a semantic search query.
type SearchPayload struct {
	Query string `json:"query"`
}

// DetectPayload carries an object detection request. Either URL or Data is
// set. Width/Height are the original image dimensions in pixels, used to
// scale normalized boxes back to pixel coordinates.
type DetectPayload struct {
	URL    string `json:"url,omitempty"`
	Data   []byte `json:"data,omitempty"`
	MIME   string `json:"mime,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TranscribePayload carries raw audio samples. Samples are mono float32 PCM
// at SampleRate Hz (16000 in the shipped configuration).
type TranscribePayload struct {
	Samples    []float32 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

// ResponseStatus identifies the kind of message a worker posts back to its
// host.
type ResponseStatus string

const (
	StatusProgress ResponseStatus = "progress"
	StatusReady    ResponseStatus = "ready"
	StatusComplete ResponseStatus = "complete"
	StatusError    ResponseStatus = "error"
)

// Response is the worker-to-host message envelope.
//
// Exactly one ready is posted per worker lifetime in response to init. Every
// subsequent task request yields exactly one terminal response (complete or
// error), except add, which re-posts ready with the updated index contents
// the way the reference protocol does.
type Response struct {
	Status ResponseStatus `json:"status"`

	// Progress percentage during model load, 0-100, monotonically
	// non-decreasing.
	Progress float64 `json:"progress,omitempty"`

	// Ready fields (embed worker only).
	Count         int     `json:"count,omitempty"`
	KnowledgeBase []Chunk `json:"knowledge_base,omitempty"`
	Message       string  `json:"message,omitempty"`

	// Complete fields, one per task kind.
	Classification []LabelScore   `json:"classification,omitempty"`
	Sentiment      []LabelScore   `json:"sentiment,omitempty"`
	Prediction     string         `json:"prediction,omitempty"`
	Results        []SearchResult `json:"results,omitempty"`
	Detections     []Detection    `json:"detections,omitempty"`
	Transcript     *Transcript    `json:"transcript,omitempty"`

	Error string `json:"error,omitempty"`
}

// LabelScore pairs a label with a probability score in [0,1].
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Box is an axis-aligned bounding box in original-image pixel coordinates.
type Box struct {
	XMin int `json:"xmin"`
	YMin int `json:"ymin"`
	XMax int `json:"xmax"`
	YMax int `json:"ymax"`
}

// Detection is one detected object.
type Detection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Box   Box     `json:"box"`
}

// Transcript is the result of a speech transcription request.
type Transcript struct {
	Text string `json:"text"`
}

// ErrorResponse builds an error envelope from an error value.
func ErrorResponse(err error) Response {
	return Response{Status: StatusError, Error: err.Error()}
}

// Validate performs the defensive worker-side payload check. Hosts are
// expected to guard before sending; this is the backstop.
func (r *Request) Validate() error {
	switch r.Type {
	case RequestInit:
		return nil
	case RequestClassify:
		if r.Classify == nil || r.Classify.Text == "" {
			return fmt.Errorf("classify: text is required")
		}
		if len(r.Classify.Labels) == 0 {
			return fmt.Errorf("classify: at least one candidate label is required")
		}
		return nil
	case RequestSentiment:
		if r.Sentiment == nil || r.Sentiment.Text == "" {
			return fmt.Errorf("sentiment: text is required")
		}
		return nil
	case RequestGenerate:
		if r.Generate == nil || r.Generate.Text == "" {
			return fmt.Errorf("generate: text is required")
		}
		return nil
	case RequestAdd:
		if r.Add == nil || (r.Add.Text == "" && len(r.Add.Data) == 0) {
			return fmt.Errorf("add: text or data is required")
		}
		if r.Add.SourceID == "" {
			return fmt.Errorf("add: source_id is required")
		}
		return nil
	case RequestSearch:
		if r.Search == nil || r.Search.Query == "" {
			return fmt.Errorf("search: query is required")
		}
		return nil
	case RequestDetect:
		if r.Detect == nil || (r.Detect.URL == "" && len(r.Detect.Data) == 0) {
			return fmt.Errorf("detect: image url or data is required")
		}
		return nil
	case RequestTranscribe:
		if r.Transcribe == nil || len(r.Transcribe.Samples) == 0 {
			return fmt.Errorf("transcribe: audio samples are required")
		}
		if r.Transcribe.SampleRate <= 0 {
			return fmt.Errorf("transcribe: sample rate must be positive")
		}
		return nil
	default:
		return fmt.Errorf("unknown request type: %q", r.Type)
	}
}
