package q3bsp

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEntities = `{
"classname" "worldspawn"
"message" "The Longest Yard"
"music" "music/fla22k_02.wav"
}
{
"classname" "info_player_deathmatch"
"origin" "-64 128 24.5"
"angle" "180"
}
{
"classname" "info_player_deathmatch"
"origin" "0 0 0"
}
{
"classname" "target_position"
"targetname" "t1"
"origin" "bogus"
}
{
"origin" "1 2 3"
"say" "hello "world""
}
`

func TestParseEntities(t *testing.T) {
	t.Parallel()

	ents := parseEntities(testEntities)

	require.Len(t, ents.All, 5)
	assert.Len(t, ents.Class("info_player_deathmatch"), 2)
	assert.Len(t, ents.Class("worldspawn"), 1)
	assert.Empty(t, ents.Class("light"))

	world := ents.Class("worldspawn")[0]
	msg, ok := world.Value("message")
	assert.True(t, ok)
	assert.Equal(t, "The Longest Yard", msg)
	assert.False(t, world.HasOrigin)

	spawn := ents.Class("info_player_deathmatch")[0]
	assert.True(t, spawn.HasOrigin)
	assert.Equal(t, mgl32.Vec3{-64, 128, 24.5}, spawn.Origin)
	assert.True(t, spawn.HasAngle)
	assert.Equal(t, float32(180), spawn.Angle)
	assert.Empty(t, spawn.Properties)

	origin, ok := spawn.Value("origin")
	assert.True(t, ok)
	assert.Equal(t, "-64 128 24.5", origin)

	target, ok := ents.Target("t1")
	require.True(t, ok)
	assert.Equal(t, "target_position", target.ClassName)
	assert.False(t, target.HasOrigin, "malformed origin stays verbatim")
	assert.Equal(t, "bogus", target.Properties["origin"])

	unknown := ents.Class(unknownClass)
	require.Len(t, unknown, 1)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, unknown[0].Origin)
	assert.Equal(t, `hello "world"`, unknown[0].Properties["say"])
}

func TestParseEntities_Empty(t *testing.T) {
	t.Parallel()

	ents := parseEntities("")

	assert.Empty(t, ents.All)
	_, ok := ents.Target("anything")
	assert.False(t, ok)
}

func TestParseEntities_PairsOnBraceLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		class  string
		origin mgl32.Vec3
	}{
		{
			name:   "opening brace",
			text:   "{ \"classname\" \"light\"\n\"origin\" \"1 2 3\"\n}\n",
			class:  "light",
			origin: mgl32.Vec3{1, 2, 3},
		},
		{
			name:   "closing brace",
			text:   "{\n\"classname\" \"light\"\n\"origin\" \"4 5 6\" }\n",
			class:  "light",
			origin: mgl32.Vec3{4, 5, 6},
		},
		{
			name:   "single line",
			text:   "{ \"origin\" \"7 8 9\" }\n",
			class:  unknownClass,
			origin: mgl32.Vec3{7, 8, 9},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ents := parseEntities(tt.text)

			require.Len(t, ents.All, 1)
			assert.Equal(t, tt.class, ents.All[0].ClassName)
			assert.True(t, ents.All[0].HasOrigin)
			assert.Equal(t, tt.origin, ents.All[0].Origin)
		})
	}
}
