package atlas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAtlas = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>frames</key>
	<dict>
		<key>icon_b.png</key>
		<dict>
			<key>frame</key>
			<string>{{84,2},{10,20}}</string>
			<key>rotated</key>
			<true/>
			<key>offset</key>
			<string>{1,-2}</string>
			<key>sourceSize</key>
			<string>{16,24}</string>
		</dict>
		<key>icon_a.png</key>
		<dict>
			<key>frame</key>
			<string>{{2,2},{80,96}}</string>
			<key>rotated</key>
			<false/>
		</dict>
	</dict>
	<key>metadata</key>
	<dict>
		<key>format</key>
		<integer>2</integer>
		<key>textureFileName</key>
		<string>ui_icons.png</string>
	</dict>
</dict>
</plist>
`

func TestParse(t *testing.T) {
	t.Parallel()

	a, err := Parse([]byte(sampleAtlas))
	require.NoError(t, err)

	assert.Equal(t, "ui_icons.png", a.Texture)
	require.Len(t, a.Frames, 2)

	// Frames come back sorted by name.
	fa := a.Frames[0]
	assert.Equal(t, "icon_a.png", fa.Name)
	assert.Equal(t, 2, fa.X)
	assert.Equal(t, 2, fa.Y)
	assert.Equal(t, 80, fa.W)
	assert.Equal(t, 96, fa.H)
	assert.False(t, fa.Rotated)
	// No sourceSize means the frame is untrimmed.
	assert.Equal(t, 80, fa.SourceW)
	assert.Equal(t, 96, fa.SourceH)
	assert.False(t, fa.Trimmed())

	fb := a.Frames[1]
	assert.Equal(t, "icon_b.png", fb.Name)
	assert.True(t, fb.Rotated)
	assert.Equal(t, 10, fb.W)
	assert.Equal(t, 20, fb.H)
	assert.Equal(t, 16, fb.SourceW)
	assert.Equal(t, 24, fb.SourceH)
	assert.Equal(t, 1, fb.OffsetX)
	assert.Equal(t, -2, fb.OffsetY)
	assert.True(t, fb.Trimmed())
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("not a plist"))
	assert.ErrorIs(t, err, ErrCorruptAtlas)
}

func TestParseRejectsEmptyFrames(t *testing.T) {
	t.Parallel()

	empty := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict>
	<key>frames</key><dict/>
	<key>metadata</key><dict><key>textureFileName</key><string>x.png</string></dict>
</dict></plist>`
	_, err := Parse([]byte(empty))
	assert.ErrorIs(t, err, ErrCorruptAtlas)
}

func TestParseRejectsMalformedRect(t *testing.T) {
	t.Parallel()

	bad := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict>
	<key>frames</key><dict>
		<key>broken.png</key><dict>
			<key>frame</key><string>{{2,2},{80}}</string>
		</dict>
	</dict>
</dict></plist>`
	_, err := Parse([]byte(bad))
	assert.ErrorIs(t, err, ErrCorruptAtlas)
}

func TestParseFloatCoordinates(t *testing.T) {
	t.Parallel()

	// Some packers emit fractional offsets.
	f, err := parseFrame("x", plistFrame{
		Frame:      "{{1.0,2.0},{3.5,4.5}}",
		Offset:     "{0.5,-0.5}",
		SourceSize: "{8,8}",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.X)
	assert.Equal(t, 3, f.W)
	assert.Equal(t, 0, f.OffsetX)
}
