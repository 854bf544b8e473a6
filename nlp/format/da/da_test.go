package da

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnneBeyer/tgen/nlp/types"
)

func TestParse(t *testing.T) {
	da, err := Parse(`inform(food=Italian,area="city centre")&request(phone)&bye()`)
	require.NoError(t, err)
	assert.Equal(t, types.DA{
		{Type: "inform", Slot: "food", Value: "Italian"},
		{Type: "inform", Slot: "area", Value: "city centre"},
		{Type: "request", Slot: "phone", Value: ""},
		{Type: "bye", Slot: "", Value: ""},
	}, da)
	assert.Equal(t, `inform(food=Italian)&inform(area=city centre)&request(phone)&bye()`, da.String())

	for _, bad := range []string{"", "inform", "(food=x)", "inform(food=x", "inform(=x)", `inform(name="Bar, Grill)`, `inform(name='x)&bye()`} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseQuoted(t *testing.T) {
	da, err := Parse(`inform(name="Bar, Grill",food=Italian)&inform(note='a&b=c')`)
	require.NoError(t, err)
	assert.Equal(t, types.DA{
		{Type: "inform", Slot: "name", Value: "Bar, Grill"},
		{Type: "inform", Slot: "food", Value: "Italian"},
		{Type: "inform", Slot: "note", Value: "a&b=c"},
	}, da)

	again, err := Parse(da.String())
	require.NoError(t, err)
	assert.Equal(t, da, again, "the text form reads back")

	da = types.DA{{Type: "inform", Slot: "name", Value: `say "hi", (twice)`}}
	again, err = Parse(da.String())
	require.NoError(t, err)
	assert.Equal(t, da, again)
}

func TestRead(t *testing.T) {
	input := "# test DAs\ninform(food=Italian)\n\nrequest(phone)\nbye()\n"
	das, err := Read(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, das, 3)
	assert.Equal(t, "request(phone)", das[1].String())

	das, err = Read(strings.NewReader(input), 2)
	require.NoError(t, err)
	assert.Len(t, das, 2)

	_, err = Read(strings.NewReader("inform(food=Italian)\ninform(\n"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
