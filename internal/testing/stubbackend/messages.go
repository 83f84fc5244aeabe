package stubbackend

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avachat/chat-widget/internal/core/domain"
)

type contentRequest struct {
	Content string `json:"content" validate:"required"`
}

// AgentReply is the canned answer appended when bot replies are enabled.
func AgentReply(content string) string {
	return fmt.Sprintf("Hi there, you said: '%s'", content)
}

func (s *Server) listMessages(c echo.Context) error {
	uid := accountID(c)

	s.mu.Lock()
	out := make([]domain.Message, 0, len(s.messages[uid]))
	for _, m := range s.messages[uid] {
		out = append(out, *m)
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, out)
}

func (s *Server) createMessage(c echo.Context) error {
	req, err := bindContent(c)
	if err != nil {
		return err
	}
	uid := accountID(c)

	s.mu.Lock()
	created := []domain.Message{s.appendLocked(uid, req.Content, domain.SenderUser)}
	if s.botReply {
		created = append(created, s.appendLocked(uid, AgentReply(req.Content), domain.SenderAgent))
	}
	s.mu.Unlock()

	if s.botReply {
		return c.JSON(http.StatusCreated, created)
	}
	return c.JSON(http.StatusCreated, created[0])
}

func (s *Server) updateMessage(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return err
	}
	req, err := bindContent(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findLocked(accountID(c), id)
	if m == nil {
		return errMessageNotFound
	}
	now := s.now()
	m.Content = req.Content
	m.UpdatedAt = &now
	if s.editAck {
		return c.JSON(http.StatusOK, errorResponse{Detail: "Message updated."})
	}
	return c.JSON(http.StatusOK, *m)
}

func (s *Server) deleteMessage(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findLocked(accountID(c), id)
	if m == nil {
		return errMessageNotFound
	}
	now := s.now()
	m.DeletedAt = &now
	if s.ackOnly {
		return c.JSON(http.StatusOK, errorResponse{Detail: "Message deleted."})
	}
	return c.JSON(http.StatusOK, *m)
}

func (s *Server) appendLocked(uid int64, content string, sender domain.Sender) domain.Message {
	s.nextMsg++
	m := &domain.Message{
		ID:        s.nextMsg,
		Content:   content,
		Sender:    sender,
		Timestamp: s.now(),
		UserID:    uid,
	}
	s.messages[uid] = append(s.messages[uid], m)
	return *m
}

// findLocked returns the caller's own live message with id. Agent messages
// and tombstones cannot be modified.
func (s *Server) findLocked(uid, id int64) *domain.Message {
	for _, m := range s.messages[uid] {
		if m.ID == id && m.Sender == domain.SenderUser && !m.IsDeleted() {
			return m
		}
	}
	return nil
}

func bindContent(c echo.Context) (contentRequest, error) {
	var req contentRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := c.Validate(req); err != nil {
		return req, err
	}
	return req, nil
}

func messageID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid message id")
	}
	return id, nil
}
