package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name        string
		cb          *tele.Callback
		wantUnique  string
		wantPayload string
	}{
		{name: "nil", cb: nil},
		{name: "raw with payload", cb: &tele.Callback{Data: "\fsurah|2"}, wantUnique: "surah", wantPayload: "2"},
		{name: "raw without payload", cb: &tele.Callback{Data: "\fbrowse_surahs"}, wantUnique: "browse_surahs"},
		{name: "payload keeps separators", cb: &tele.Callback{Data: "\ffav_key|2|255"}, wantUnique: "fav_key", wantPayload: "2|255"},
		{name: "plain data", cb: &tele.Callback{Data: "main_menu"}, wantUnique: "main_menu"},
		{name: "routed by telebot", cb: &tele.Callback{Unique: "remove", Data: "10"}, wantUnique: "remove", wantPayload: "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unique, payload := ParseCallbackData(tt.cb)
			assert.Equal(t, tt.wantUnique, unique)
			assert.Equal(t, tt.wantPayload, payload)
		})
	}
}

func TestPayloadHelpers(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)

	c := b.NewContext(tele.Update{Callback: &tele.Callback{Data: "\ffav_key|2|255"}})
	assert.Equal(t, "fav_key", CallbackKey(c))
	assert.Equal(t, "2|255", CallbackPayload(c))

	c = b.NewContext(tele.Update{Callback: &tele.Callback{Data: "\fsurah|114"}})
	n, err := PayloadInt(c)
	require.NoError(t, err)
	assert.Equal(t, 114, n)

	c = b.NewContext(tele.Update{Callback: &tele.Callback{Data: "\fsurah"}})
	_, err = PayloadInt(c)
	assert.Error(t, err)
}
