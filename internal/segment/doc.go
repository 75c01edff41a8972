// Package segment implements the immutable segment files produced by flush
// and compaction.
//
// A segment holds entries of many keys in ascending sequence order:
//
//	[Magic 8] [Codec 1] [Count 4] [MinSeq 8] [MaxSeq 8] [RawLen 4] [BodyLen 4] [CRC32 4] [Body]
//	Body (after decompression): Count x ([Seq 8] [KeyLen 4] [Key] [ValueLen 4] [Value])
//
// Every segment comes with a roaring bitmap of its key hashes, kept in the
// manifest, so scans skip segments that cannot contain the key without
// downloading them.
package segment
