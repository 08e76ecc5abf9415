// Package regf is a read-only parser and navigator for Windows Registry
// hive files (the "regf" binary format used by SYSTEM, SOFTWARE, NTUSER.DAT
// and friends).
//
// Open a hive with Open or OpenBytes, walk it from Hive.RootKey, and
// descend with Key.SubKeyByName/SubKeyAt or Key.SubKeyByPath. Values hang
// off a Key via Key.ValueByName/ValueAt and expose typed accessors
// (Value.AsU32, Value.AsUTF16String, Value.AsMultiString, ...).
//
// The library never writes to a hive and never materializes a decoded
// string unless a caller asks for one: Key and Value expose NameRaw for
// callers that want to transcode names themselves.
//
// Real-world hives are routinely damaged in small, localized ways. Rather
// than fail outright, a hive with isolated corruption opens successfully;
// Hive.IsCorrupted reports whether anything read from the hive had to
// recover from malformed data, Key.IsCorrupted whether the key's own nk
// record did, and Value.IsCorrupted whether the value's record or data
// did. Open rejects a hive only when the file cannot be read, the header
// is short, the signature, version or file type is unsupported, or no
// hbin block can be indexed.
//
// A Hive and everything reachable from it is not safe for concurrent use
// from multiple goroutines; open one Hive per goroutine, or guard access
// with external synchronization.
package regf
