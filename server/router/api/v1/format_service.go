package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/sbotchat/ai/format"
	"github.com/hrygo/sbotchat/ai/widget"
)

// maxBatchMessages bounds one batch formatting request.
const maxBatchMessages = 200

type formatRequest struct {
	// Content is kept untyped; non-string values render the invalid-content fragment.
	Content     any              `json:"content"`
	MessageType string           `json:"message_type"`
	Data        *format.SideData `json:"data,omitempty"`
	// Fallback selects the full GFM renderer without classification or enhancement.
	Fallback bool `json:"fallback"`
}

type formatResponse struct {
	HTML        string             `json:"html"`
	ContentType format.ContentType `json:"content_type"`
	Enhanced    bool               `json:"enhanced"`
	Failed      bool               `json:"failed"`
	LatencyMs   int64              `json:"latency_ms"`
}

// Format renders one response body.
func (s *APIV1Service) Format(c echo.Context) error {
	var req formatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	uid, err := userID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var formatter format.Formatter = s.fallback
	if !req.Fallback {
		o, err := s.orchestrator(ctx, uid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load formatter config").SetInternal(err)
		}
		formatter = o
	}

	res := formatter.Format(ctx, &format.FormatRequest{
		Content:     req.Content,
		MessageType: req.MessageType,
		Data:        req.Data,
	})
	return c.JSON(http.StatusOK, &formatResponse{
		HTML:        res.HTML,
		ContentType: res.ContentType,
		Enhanced:    res.Enhanced,
		Failed:      res.Failed,
		LatencyMs:   res.Latency.Milliseconds(),
	})
}

type formatMessagesRequest struct {
	Messages []*widget.Message `json:"messages"`
}

type formatMessagesResponse struct {
	Messages  []*widget.Message `json:"messages"`
	Formatted int               `json:"formatted"`
}

// FormatMessages formats a batch of chat messages in place. Only assistant
// messages not yet formatted are touched.
func (s *APIV1Service) FormatMessages(c echo.Context) error {
	var req formatMessagesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Messages) > maxBatchMessages {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too many messages")
	}
	uid, err := userID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	o, err := s.orchestrator(ctx, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load formatter config").SetInternal(err)
	}

	n, err := widget.NewAdapter(o).FormatAll(ctx, req.Messages)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "formatting interrupted").SetInternal(err)
	}
	if req.Messages == nil {
		req.Messages = []*widget.Message{}
	}
	return c.JSON(http.StatusOK, &formatMessagesResponse{Messages: req.Messages, Formatted: n})
}
