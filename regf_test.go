package regf

import (
	"testing"

	"github.com/hiveread/regf/internal/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openFixture finalizes a fixture's buffer and opens it through the public
// API, the same entry point a real caller uses.
func openFixture(t *testing.T, f *fixture, rootOffset uint32) *Hive {
	t.Helper()
	h, err := OpenBytes(f.finish(rootOffset, 1, 3))
	require.NoError(t, err)
	return h
}

// S1: a hive containing nothing but a root key with no subkeys or values.
func TestMinimumRootHive(t *testing.T) {
	f := newFixture()
	rootOff := f.putCell(buildNK(nkFlagCompressedName|nkFlagRootKey, 0, format.InvalidOffset, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Root")))
	h := openFixture(t, f, rootOff)
	defer h.Close()

	require.False(t, h.IsCorrupted())
	root, err := h.RootKey()
	require.NoError(t, err)
	assert.False(t, root.IsCorrupted())
	assert.Equal(t, 0, root.SubKeyCount())
	assert.Equal(t, 0, root.ValueCount())
	raw, compressed := root.NameRaw()
	assert.True(t, compressed)
	assert.Equal(t, []byte("Root"), raw)
}

// S2: a root key with one inline REG_DWORD value "On" = 1.
func TestInlineDwordValue(t *testing.T) {
	f := newFixture()
	vkOff := f.putCell(buildVK(vkInlineBit|4, 0x00000001, format.REGDWORD, vkFlagASCIIName, []byte("On")))
	valListOff := f.putCell(buildValueList(vkOff))
	rootOff := f.putCell(buildNK(nkFlagCompressedName|nkFlagRootKey, 0, format.InvalidOffset, 1, valListOff, format.InvalidOffset, format.InvalidOffset, 0, []byte("Root")))
	h := openFixture(t, f, rootOff)
	defer h.Close()

	root, err := h.RootKey()
	require.NoError(t, err)
	require.Equal(t, 1, root.ValueCount())

	v, err := root.ValueByName("On")
	require.NoError(t, err)
	assert.Equal(t, TypeUint32LE, v.Type())
	n, err := v.AsU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)
	assert.False(t, v.IsCorrupted())
}

// S3: path lookup is case-insensitive at every segment.
func TestSubKeyByPathCaseInsensitive(t *testing.T) {
	f := newFixture()
	testOff := f.putCell(buildNK(nkFlagCompressedName, 0, format.InvalidOffset, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Test")))
	testListOff := f.putCell(buildLIList(testOff))
	softwareOff := f.putCell(buildNK(nkFlagCompressedName, 1, testListOff, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Software")))
	swListOff := f.putCell(buildLIList(softwareOff))
	rootOff := f.putCell(buildNK(nkFlagCompressedName|nkFlagRootKey, 1, swListOff, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Root")))
	h := openFixture(t, f, rootOff)
	defer h.Close()

	root, err := h.RootKey()
	require.NoError(t, err)

	for _, path := range []string{`\Software\Test`, `Software\Test`, `software\TEST`} {
		k, err := root.SubKeyByPath(path)
		require.NoError(t, err, "path %q", path)
		assert.Equal(t, testOff, k.Offset(), "path %q", path)
	}

	self, err := root.SubKeyByPath("")
	require.NoError(t, err)
	assert.Equal(t, root.Offset(), self.Offset())

	_, err = root.SubKeyByPath(`Software\`)
	assert.Error(t, err)
}

// S4: a multi-string value decodes the same two strings whether or not it
// carries the conventional trailing empty-string terminator, but only the
// terminated form leaves the value uncorrupted.
func TestMultiStringTerminatedAndNot(t *testing.T) {
	withTerm := append(append(utf16leBytes('S', 'y', 's'), 0, 0), append(utf16leBytes('B', 'u', 's'), 0, 0, 0, 0)...)
	withoutTerm := append(append(utf16leBytes('S', 'y', 's'), 0, 0), utf16leBytes('B', 'u', 's')...)
	withoutTerm = append(withoutTerm, 0, 0)

	for _, tc := range []struct {
		name      string
		data      []byte
		corrupted bool
	}{
		{"terminated", withTerm, false},
		{"unterminated", withoutTerm, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			dataOff := f.putCell(tc.data)
			vkOff := f.putCell(buildVK(uint32(len(tc.data)), dataOff, format.REGMultiSZ, 0, []byte{'M', 0, 'S', 0}))
			valListOff := f.putCell(buildValueList(vkOff))
			rootOff := f.putCell(buildNK(nkFlagCompressedName|nkFlagRootKey, 0, format.InvalidOffset, 1, valListOff, format.InvalidOffset, format.InvalidOffset, 0, []byte("Root")))
			h := openFixture(t, f, rootOff)
			defer h.Close()

			root, err := h.RootKey()
			require.NoError(t, err)
			v, err := root.ValueAt(0)
			require.NoError(t, err)

			strs, err := v.AsMultiString()
			require.NoError(t, err)
			assert.Equal(t, []string{"Sys", "Bus"}, strs)
			assert.Equal(t, tc.corrupted, v.IsCorrupted())
			assert.Equal(t, tc.corrupted, h.IsCorrupted())
		})
	}
}

// S5: a value spanning three big-data segments (two full 16344-byte chunks
// plus a short remainder) reassembles to its full declared length.
func TestSegmentedValueAcrossDBBlocks(t *testing.T) {
	const chunk = 16344
	total := chunk*2 + 80
	payload := make([]byte, total)
	for i := range payload {
		payload[i] = byte(i)
	}

	f := newFixture()
	block0 := f.putCell(dbBlockPayload(payload[:chunk]))
	block1 := f.putCell(dbBlockPayload(payload[chunk : chunk*2]))
	block2 := f.putCell(dbBlockPayload(payload[chunk*2:]))
	blocklistOff := f.putCell(buildValueList(block0, block1, block2))
	dbOff := f.putCell(buildDB(blocklistOff, 3))
	vkOff := f.putCell(buildVK(uint32(total), dbOff, format.REGBinary, vkFlagASCIIName, []byte("Big")))
	valListOff := f.putCell(buildValueList(vkOff))
	rootOff := f.putCell(buildNK(nkFlagCompressedName|nkFlagRootKey, 0, format.InvalidOffset, 1, valListOff, format.InvalidOffset, format.InvalidOffset, 0, []byte("Root")))
	h := openFixture(t, f, rootOff)
	defer h.Close()

	root, err := h.RootKey()
	require.NoError(t, err)
	v, err := root.ValueByName("Big")
	require.NoError(t, err)
	require.Equal(t, total, v.DataSize())

	got := v.AsBinary()
	require.Len(t, got, total)
	assert.Equal(t, payload, got)
	assert.False(t, v.IsCorrupted())
	assert.False(t, h.IsCorrupted())

	buf := make([]byte, 40)
	n, err := v.ReadData(chunk*2-20, buf)
	require.NoError(t, err)
	assert.Equal(t, payload[chunk*2-20:chunk*2-20+n], buf[:n])
}

// S6: a key whose sub-key list cell holds an unrecognized tag is tolerated.
// The key reports no sub-keys, the hive is marked corrupted, and opening
// still succeeds; unrelated sibling keys are unaffected.
func TestCorruptedSubkeyListIsTolerated(t *testing.T) {
	f := newFixture()
	siblingOff := f.putCell(buildNK(nkFlagCompressedName, 0, format.InvalidOffset, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Sibling")))
	garbageListOff := f.putCell([]byte{'?', '?', 0xFF, 0xFF, 0xFF, 0xFF})
	damagedOff := f.putCell(buildNK(nkFlagCompressedName, 1, garbageListOff, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Damaged")))
	rootListOff := f.putCell(buildLIList(damagedOff, siblingOff))
	rootOff := f.putCell(buildNK(nkFlagCompressedName|nkFlagRootKey, 2, rootListOff, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Root")))
	h := openFixture(t, f, rootOff)
	defer h.Close()

	root, err := h.RootKey()
	require.NoError(t, err)
	require.Equal(t, 2, root.SubKeyCount())

	damaged, err := root.SubKeyByName("Damaged")
	require.NoError(t, err)
	assert.Equal(t, 0, damaged.SubKeyCount())
	assert.True(t, h.IsCorrupted())

	sibling, err := root.SubKeyByName("Sibling")
	require.NoError(t, err)
	assert.False(t, sibling.IsCorrupted())
	assert.Equal(t, 0, sibling.SubKeyCount())
}

// Invariant: SubKeyCount matches the number of entries actually reachable
// by index, and repeated lookups of the same name resolve to the same
// offset (idempotent identity).
func TestSubKeyCountMatchesEnumeration(t *testing.T) {
	f := newFixture()
	aOff := f.putCell(buildNK(nkFlagCompressedName, 0, format.InvalidOffset, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("A")))
	bOff := f.putCell(buildNK(nkFlagCompressedName, 0, format.InvalidOffset, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("B")))
	listOff := f.putCell(buildLIList(aOff, bOff))
	rootOff := f.putCell(buildNK(nkFlagCompressedName|nkFlagRootKey, 2, listOff, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Root")))
	h := openFixture(t, f, rootOff)
	defer h.Close()

	root, err := h.RootKey()
	require.NoError(t, err)
	n := root.SubKeyCount()
	seen := 0
	for i := 0; i < n; i++ {
		_, err := root.SubKeyAt(i)
		require.NoError(t, err)
		seen++
	}
	assert.Equal(t, n, seen)

	first, err := root.SubKeyByName("A")
	require.NoError(t, err)
	second, err := root.SubKeyByName("a")
	require.NoError(t, err)
	assert.Equal(t, first.Offset(), second.Offset())
}

func TestOpenBytesRejectsBadSignature(t *testing.T) {
	_, err := OpenBytes(make([]byte, format.HeaderSize))
	require.Error(t, err)
	var regErr *Error
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, ErrKindUnsupportedSignature, regErr.Kind)
}

func TestOpenBytesRejectsUnsupportedVersion(t *testing.T) {
	f := newFixture()
	rootOff := f.putCell(buildNK(nkFlagCompressedName|nkFlagRootKey, 0, format.InvalidOffset, 0, format.InvalidOffset, format.InvalidOffset, format.InvalidOffset, 0, []byte("Root")))
	buf := f.finish(rootOff, 2, 0)
	_, err := OpenBytes(buf)
	require.Error(t, err)
	var regErr *Error
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, ErrKindUnsupportedVersion, regErr.Kind)
}
