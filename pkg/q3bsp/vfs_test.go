package q3bsp_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
	"github.com/saiko-tech/q3bsp/pkg/q3bsp/q3bsptest"
)

// writeVPK writes a version 2 directory file holding data as maps/<base>.bsp.
// The content is stored as preload bytes so no data archive is needed.
func writeVPK(t *testing.T, prefix, base string, data []byte) {
	t.Helper()

	require.Less(t, len(data), 1<<16)

	var tree bytes.Buffer

	str := func(s string) {
		tree.WriteString(s)
		tree.WriteByte(0)
	}

	str("bsp")
	str("maps")
	str(base)
	require.NoError(t, binary.Write(&tree, binary.LittleEndian, struct {
		CRC          uint32
		PreloadBytes uint16
		ArchiveIndex int16
		Offset       uint32
		Length       uint32
		Terminator   uint16
	}{
		CRC:          crc32.ChecksumIEEE(data),
		PreloadBytes: uint16(len(data)),
		ArchiveIndex: 0x7fff,
		Terminator:   0xffff,
	}))
	tree.Write(data)
	str("") // end of dir
	str("") // end of ext
	str("") // end of tree

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, [7]uint32{0x55aa1234, 2, uint32(tree.Len())}))
	buf.Write(tree.Bytes())

	require.NoError(t, os.WriteFile(prefix+"_dir.vpk", buf.Bytes(), 0o600))
}

func TestLoadFromFileSystem_VPK(t *testing.T) {
	t.Parallel()

	prefix := filepath.Join(t.TempDir(), "pak01")
	writeVPK(t, prefix, "split", q3bsptest.Marshal(splitMap()))

	m, err := q3bsp.LoadFromFileSystem("maps/Split.bsp", prefix)
	require.NoError(t, err)
	assert.Len(t, m.Nodes, 1)
	assert.Len(t, m.Leaves, 2)

	_, err = q3bsp.LoadFromFileSystem("maps/missing.bsp", prefix)
	assert.Error(t, err)
}

func TestLoadFromFileSystem_BadArchives(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage+"_dir.vpk", []byte("not a vpk at all"), 0o600))

	badZip := filepath.Join(dir, "bad.pk3")
	require.NoError(t, os.WriteFile(badZip, []byte("not a zip"), 0o600))

	tests := []struct {
		name    string
		archive string
	}{
		{"missing vpk", filepath.Join(dir, "nothing")},
		{"vpk bad magic", garbage},
		{"missing pk3", filepath.Join(dir, "nothing.pk3")},
		{"pk3 not a zip", badZip},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := q3bsp.LoadFromFileSystem("maps/split.bsp", tt.archive)
			assert.Error(t, err)
		})
	}
}
