package backend

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessages_NaiveTimestamps(t *testing.T) {
	c := New(Config{}, zerolog.Nop())
	body := []byte(`[
		{"id": 1, "content": "hi", "sender": "user", "timestamp": "2024-05-01T12:00:00.123456"},
		{"id": 2, "content": "Hi there, you said: 'hi'", "sender": "agent", "timestamp": "2024-05-01T12:00:01"}
	]`)

	msgs, err := c.decodeMessages("list", body)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC), msgs[0].Timestamp)
	require.Nil(t, msgs[0].DeletedAt)
	require.Nil(t, msgs[0].UpdatedAt)
}

func TestDecodeMessages_SingleObject(t *testing.T) {
	c := New(Config{}, zerolog.Nop())
	body := []byte(`{"id": 7, "content": "bye", "sender": "user", "user_id": 3,
		"timestamp": "2024-05-01T12:00:00Z", "updated_at": "2024-05-01T13:00:00+02:00", "deleted_at": null}`)

	msgs, err := c.decodeMessages("send", body)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.EqualValues(t, 3, msgs[0].UserID)
	require.NotNil(t, msgs[0].UpdatedAt)
	require.Equal(t, 11, msgs[0].UpdatedAt.Hour())
	require.True(t, msgs[0].IsEdited())
}

func TestDecodeMessages_LegacyFlags(t *testing.T) {
	c := New(Config{}, zerolog.Nop())
	msgs, err := c.decodeMessages("list", []byte(`[{"id": 1, "content": "x", "sender": "user", "deleted": true, "edited": true}]`))
	require.NoError(t, err)
	require.True(t, msgs[0].IsDeleted())
	require.False(t, msgs[0].IsEdited())
}

func TestDecodeMessages_Rejects(t *testing.T) {
	c := New(Config{}, zerolog.Nop())
	for name, body := range map[string]string{
		"string":      `"nope"`,
		"missing id":  `[{"content": "x"}]`,
		"bad time":    `{"id": 1, "timestamp": "yesterday"}`,
		"invalid":     `{`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.decodeMessages("list", []byte(body))
			require.Error(t, err)
		})
	}
}

func TestDecodeEntity_Acknowledgement(t *testing.T) {
	c := New(Config{}, zerolog.Nop())

	m, err := c.decodeEntity("delete", []byte(`{"detail": "Message deleted."}`))
	require.NoError(t, err)
	require.Nil(t, m)

	m, err = c.decodeEntity("delete", nil)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestDecodeAuth(t *testing.T) {
	c := New(Config{}, zerolog.Nop())

	res, err := c.decodeAuth("signin", []byte(`{"access_token": "abc", "token_type": "bearer"}`))
	require.NoError(t, err)
	require.Equal(t, "abc", res.Token)

	_, err = c.decodeAuth("signin", []byte(`{"user": {}}`))
	require.Error(t, err)
}

func TestErrorDetail(t *testing.T) {
	c := New(Config{}, zerolog.Nop())
	cases := map[string]string{
		`{"detail": "Email already registered"}`:                            "Email already registered",
		`{"detail": [{"msg": "field required"}, {"msg": "value too short"}]}`: "field required; value too short",
		`{"error": "invalid credentials"}`:                                  "invalid credentials",
		`{"message": "nope"}`:                                               "nope",
		`<html>bad gateway</html>`:                                          "",
		``:                                                                  "",
	}
	for body, want := range cases {
		require.Equal(t, want, c.errorDetail([]byte(body)), body)
	}
}
