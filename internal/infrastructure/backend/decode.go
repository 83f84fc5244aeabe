package backend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/avachat/chat-widget/internal/core/domain"
)

var errUnexpectedShape = errors.New("unexpected response shape")

// Timestamp layouts accepted from the backend. Values without a zone are
// taken as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (c *Client) decodeAuth(op string, body []byte) (*domain.AuthResult, error) {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	token := string(v.GetStringBytes("token"))
	if token == "" {
		token = string(v.GetStringBytes("access_token"))
	}
	if token == "" {
		return nil, &domain.BackendError{Op: op, Status: 200, Detail: "response carried no token", Auth: true}
	}
	return &domain.AuthResult{Token: token, TokenType: string(v.GetStringBytes("token_type"))}, nil
}

// decodeMessages accepts either a single message object or an array of them.
func (c *Client) decodeMessages(op string, body []byte) ([]domain.Message, error) {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	switch v.Type() {
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]domain.Message, 0, len(items))
		for i, item := range items {
			m, err := parseMessage(item)
			if err != nil {
				return nil, fmt.Errorf("%s: message %d: %w", op, i, err)
			}
			out = append(out, m)
		}
		return out, nil
	case fastjson.TypeObject:
		m, err := parseMessage(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return []domain.Message{m}, nil
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, errUnexpectedShape, v.Type())
	}
}

// decodeEntity returns the message echoed by an edit or delete, or nil when
// the body is empty or an acknowledgement such as {"detail": "..."}.
func (c *Client) decodeEntity(op string, body []byte) (*domain.Message, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%s: %w: %s", op, errUnexpectedShape, v.Type())
	}
	if !v.Exists("id") {
		return nil, nil
	}
	m, err := parseMessage(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

func parseMessage(v *fastjson.Value) (domain.Message, error) {
	if v.Type() != fastjson.TypeObject {
		return domain.Message{}, fmt.Errorf("%w: %s", errUnexpectedShape, v.Type())
	}
	idValue := v.Get("id")
	if idValue == nil || idValue.Type() != fastjson.TypeNumber {
		return domain.Message{}, errors.New("message has no numeric id")
	}
	id, err := idValue.Int64()
	if err != nil {
		return domain.Message{}, fmt.Errorf("message id: %w", err)
	}

	m := domain.Message{
		ID:      id,
		Content: string(v.GetStringBytes("content")),
		Sender:  domain.Sender(v.GetStringBytes("sender")),
		UserID:  v.GetInt64("user_id"),
		Edited:  v.GetBool("edited"),
		Deleted: v.GetBool("deleted"),
	}
	if ts, err := parseTime(v.Get("timestamp")); err != nil {
		return domain.Message{}, fmt.Errorf("timestamp: %w", err)
	} else if ts != nil {
		m.Timestamp = *ts
	}
	if m.DeletedAt, err = parseTime(v.Get("deleted_at")); err != nil {
		return domain.Message{}, fmt.Errorf("deleted_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(v.Get("updated_at")); err != nil {
		return domain.Message{}, fmt.Errorf("updated_at: %w", err)
	}
	return m, nil
}

func parseTime(v *fastjson.Value) (*time.Time, error) {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil, nil
	}
	raw, err := v.StringBytes()
	if err != nil {
		return nil, err
	}
	s := string(raw)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised time %q", s)
}

// errorDetail extracts the human-readable message of an error body. It knows
// {"detail": "..."}, FastAPI's {"detail": [{"msg": "..."}]}, {"error": "..."}
// and {"message": "..."}.
func (c *Client) errorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil || v.Type() != fastjson.TypeObject {
		return ""
	}

	if d := v.Get("detail"); d != nil {
		switch d.Type() {
		case fastjson.TypeString:
			return string(d.GetStringBytes())
		case fastjson.TypeArray:
			items, _ := d.Array()
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if msg := item.GetStringBytes("msg"); len(msg) > 0 {
					msgs = append(msgs, string(msg))
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	for _, key := range []string{"error", "message"} {
		if s := v.GetStringBytes(key); len(s) > 0 {
			return string(s)
		}
	}
	return ""
}
