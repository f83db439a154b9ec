package repository

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawManifestEntry struct {
	name    string
	guid    [16]byte
	folder  uint16
	typeIdx uint16
	related int
}

func buildManifest(types, folders string, entries []rawManifestEntry) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint32(7)) // version
	binary.Write(&b, binary.LittleEndian, uint16(0))
	binary.Write(&b, binary.LittleEndian, uint32(0))

	binary.Write(&b, binary.LittleEndian, uint16(len(types)))
	b.WriteString(types)
	binary.Write(&b, binary.LittleEndian, uint16(len(folders)))
	b.WriteString(folders)

	for _, e := range entries {
		binary.Write(&b, binary.LittleEndian, uint16(0))
		binary.Write(&b, binary.LittleEndian, uint16(0))
		b.WriteByte(0)
		b.Write(e.guid[:])
		binary.Write(&b, binary.LittleEndian, uint16(len(e.name)))
		b.WriteString(e.name)
		binary.Write(&b, binary.LittleEndian, e.folder)
		binary.Write(&b, binary.LittleEndian, e.typeIdx)
		binary.Write(&b, binary.LittleEndian, uint16(e.related))
		b.Write(make([]byte, e.related*16))
	}
	return b.Bytes()
}

func testGUID(first byte) [16]byte {
	g := [16]byte{first, 0x36, 0x39, 0x8b, 0x90, 0xf9, 0x47, 0xcb, 0xb9, 0x8f, 0x6e, 0x46, 0x9a, 0x78, 0x8c, 0x2e}
	return g
}

func TestParse(t *testing.T) {
	t.Parallel()

	data := buildManifest(
		"Unknown;Texture2D;SpriteAtlas",
		"textures;ui/atlases",
		[]rawManifestEntry{
			{name: "hud_icons", guid: testGUID(0x0c), folder: 0, typeIdx: 1, related: 2},
			{name: "hud_icons_atlas", guid: testGUID(0x1d), folder: 1, typeIdx: 2},
		})

	r, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), r.Version)
	assert.Equal(t, []string{"Unknown", "Texture2D", "SpriteAtlas"}, r.Types())
	require.Len(t, r.Entries(), 2)

	e := r.Entries()[0]
	assert.Equal(t, "hud_icons", e.Name)
	assert.Equal(t, "Texture2D", r.TypeName(e))
	assert.Equal(t, "textures", r.FolderPath(e))
}

func TestParseToleratesPartialTail(t *testing.T) {
	t.Parallel()

	data := buildManifest("Unknown;Texture2D", "f", []rawManifestEntry{
		{name: "ok", guid: testGUID(0xaa), typeIdx: 1},
	})
	// Append half a record; the parsed prefix must survive.
	data = append(data, 0x01, 0x02, 0x03)

	r, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, r.Entries(), 1)
	assert.Equal(t, "ok", r.Entries()[0].Name)
}

func TestParseCorruptHeader(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCorrupt)

	// Type table length reaching past the end of data.
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint32(1))
	binary.Write(&b, binary.LittleEndian, uint16(0))
	binary.Write(&b, binary.LittleEndian, uint32(0))
	binary.Write(&b, binary.LittleEndian, uint16(500))
	b.WriteString("short")
	_, err = Parse(b.Bytes())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestGUIDPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"0c/0c36398b-90f9-47cb-b98f-6e469a788c2e",
		GUIDPath(testGUID(0x0c)))
}

func TestFindTexture(t *testing.T) {
	t.Parallel()

	data := buildManifest(
		"Unknown;Texture2D;SpriteAtlas",
		"t",
		[]rawManifestEntry{
			{name: "hud_icons", guid: testGUID(0x11), typeIdx: 2}, // atlas type, not a texture
			{name: "hud_icons", guid: testGUID(0x22), typeIdx: 1},
			{name: "other", guid: testGUID(0x33), typeIdx: 1},
		})

	r, err := Parse(data)
	require.NoError(t, err)

	// The .png suffix of the logical name is ignored and only Texture2D
	// entries qualify.
	e, ok := r.FindTexture("hud_icons.png")
	require.True(t, ok)
	assert.Equal(t, byte(0x22), e.GUID[0])
	assert.Equal(t, "22/2236398b-90f9-47cb-b98f-6e469a788c2e", e.Path())

	_, ok = r.FindTexture("missing")
	assert.False(t, ok)
}

func TestFindByName(t *testing.T) {
	t.Parallel()

	data := buildManifest("Unknown", "f", []rawManifestEntry{
		{name: "Gear_Chest_01", guid: testGUID(0x01)},
		{name: "gear_helm_02", guid: testGUID(0x02)},
	})
	r, err := Parse(data)
	require.NoError(t, err)

	assert.Len(t, r.FindByName("GEAR_"), 2)
	assert.Len(t, r.FindByName("chest"), 1)
	assert.Empty(t, r.FindByName("boots"))
}
