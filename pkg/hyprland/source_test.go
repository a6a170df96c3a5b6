package hyprland

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/miketth/kblayout/pkg/xkblayouts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devicesJSON = `{
  "mice": [],
  "keyboards": [
    {
      "address": "0x1",
      "name": "power-button",
      "rules": "", "model": "",
      "layout": "us",
      "variant": "",
      "options": "",
      "active_keymap": "English (US)",
      "main": false
    },
    {
      "address": "0x2",
      "name": "at-translated-set-2-keyboard",
      "rules": "", "model": "",
      "layout": "us,ru",
      "variant": ",phonetic",
      "options": "grp:alt_shift_toggle",
      "active_keymap": "Russian (phonetic)",
      "main": true
    }
  ]
}`

type staticKeyboards []Keyboard

func (s staticKeyboards) GetKeyboards() ([]Keyboard, error) {
	return s, nil
}

func testKeyboards(t *testing.T) []Keyboard {
	t.Helper()
	keyboards, err := decodeKeyboards(strings.NewReader(devicesJSON))
	require.NoError(t, err)
	return keyboards
}

func testRegistry(t *testing.T) *xkblayouts.XkbConfigRegistry {
	t.Helper()
	const registryXML = `<xkbConfigRegistry><layoutList>
<layout><configItem><name>us</name><description>English (US)</description></configItem></layout>
<layout><configItem><name>ru</name><description>Russian</description></configItem>
<variantList><variant><configItem><name>phonetic</name><description>Russian (phonetic)</description></configItem></variant></variantList>
</layout></layoutList></xkbConfigRegistry>`

	path := filepath.Join(t.TempDir(), "evdev.xml")
	require.NoError(t, os.WriteFile(path, []byte(registryXML), 0644))
	registry, err := xkblayouts.ParseLayouts(path)
	require.NoError(t, err)
	return registry
}

func TestDecodeKeyboards(t *testing.T) {
	keyboards := testKeyboards(t)

	require.Len(t, keyboards, 2)
	assert.Equal(t, Keyboard{
		Name:              "at-translated-set-2-keyboard",
		Main:              true,
		Layouts:           []string{"us", "ru"},
		Variants:          []string{"", "phonetic"},
		ActiveKeymap:      "Russian (phonetic)",
		ActiveLayoutIndex: -1,
	}, keyboards[1])
	assert.Equal(t, []string{""}, keyboards[0].Variants)
}

func TestSelectKeyboard(t *testing.T) {
	keyboards := testKeyboards(t)

	kb, err := selectKeyboard(keyboards, "")
	require.NoError(t, err)
	assert.Equal(t, "at-translated-set-2-keyboard", kb.Name)

	kb, err = selectKeyboard(keyboards, "power-button")
	require.NoError(t, err)
	assert.Equal(t, "power-button", kb.Name)

	_, err = selectKeyboard(keyboards, "missing")
	assert.ErrorIs(t, err, ErrKeyboardNotFound)

	_, err = selectKeyboard(nil, "")
	assert.ErrorIs(t, err, ErrKeyboardNotFound)
}

func TestSource_CurrentGroupFromKeymap(t *testing.T) {
	src := NewSource(staticKeyboards(testKeyboards(t)), testRegistry(t), "")

	group, err := src.CurrentGroup()
	require.NoError(t, err)
	assert.Equal(t, 1, group)

	// served from cache the second time
	kb := testKeyboards(t)[1]
	assert.Equal(t, 1, src.layoutIdxCache[layoutKey(kb)]["Russian (phonetic)"])
	group, err = src.CurrentGroup()
	require.NoError(t, err)
	assert.Equal(t, 1, group)

	name, err := src.GroupName(group)
	require.NoError(t, err)
	assert.Equal(t, "Russian (phonetic)", name)

	layout, variant, err := src.GroupLayout(group)
	require.NoError(t, err)
	assert.Equal(t, "ru", layout)
	assert.Equal(t, "phonetic", variant)
}

type mutableKeyboards struct {
	keyboards []Keyboard
}

func (m *mutableKeyboards) GetKeyboards() ([]Keyboard, error) {
	return m.keyboards, nil
}

func TestSource_CurrentGroupAfterReorder(t *testing.T) {
	lister := &mutableKeyboards{keyboards: testKeyboards(t)}
	src := NewSource(lister, testRegistry(t), "")

	group, err := src.CurrentGroup()
	require.NoError(t, err)
	assert.Equal(t, 1, group)

	// kb_layout changed to "ru,us" while the phonetic keymap stays active
	reordered := testKeyboards(t)
	reordered[1].Layouts = []string{"ru", "us"}
	reordered[1].Variants = []string{"phonetic", ""}
	lister.keyboards = reordered

	group, err = src.CurrentGroup()
	require.NoError(t, err)
	assert.Equal(t, 0, group)
}

func TestSource_GroupNameWithoutRegistry(t *testing.T) {
	src := NewSource(staticKeyboards(testKeyboards(t)), nil, "")

	name, err := src.GroupName(1)
	require.NoError(t, err)
	assert.Equal(t, "ru", name)
}

func TestSource_CurrentGroupFromIndex(t *testing.T) {
	keyboards := testKeyboards(t)
	keyboards[1].ActiveLayoutIndex = 0

	src := NewSource(staticKeyboards(keyboards), nil, "")

	group, err := src.CurrentGroup()
	require.NoError(t, err)
	assert.Equal(t, 0, group)
}

func TestSource_Errors(t *testing.T) {
	src := NewSource(staticKeyboards(testKeyboards(t)), nil, "")
	_, err := src.CurrentGroup()
	assert.Error(t, err)

	src = NewSource(staticKeyboards(testKeyboards(t)), testRegistry(t), "")
	_, err = src.GroupName(5)
	assert.Error(t, err)
}
