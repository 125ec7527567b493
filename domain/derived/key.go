// Package derived defines the cache of model-derived content (translations
// and reflections) and the generators that produce it.
package derived

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/helixml/tafsir/domain/language"
)

// Operation names the kind of derived content.
type Operation string

// Operation values.
const (
	OperationTranslation Operation = "translation"
	OperationReflection  Operation = "reflection"
)

// ContentPartition is the partition used for content-hash keys.
const ContentPartition = "_content"

// Key identifies one derived value by operation, content identity, and
// target language.
type Key struct {
	operation Operation
	partition string
	name      string
	identity  string
	language  language.Code
}

// PointKey identifies content derived from a single ayah lookup.
func PointKey(op Operation, author string, surah, ayah int, lang language.Code) Key {
	return Key{
		operation: op,
		partition: author,
		name:      fmt.Sprintf("%d_%d", surah, ayah),
		identity:  fmt.Sprintf("%s/%d/%d", author, surah, ayah),
		language:  lang,
	}
}

// RangeKey identifies content derived from an inclusive ayah range.
func RangeKey(op Operation, author string, surah, from, to int, lang language.Code) Key {
	return Key{
		operation: op,
		partition: author,
		name:      fmt.Sprintf("%d_%d-%d", surah, from, to),
		identity:  fmt.Sprintf("%s/%d/%d-%d", author, surah, from, to),
		language:  lang,
	}
}

// ContentKey identifies content derived from arbitrary text by its hash.
func ContentKey(op Operation, text string, lang language.Code) Key {
	sum := sha256.Sum256([]byte(text))
	digest := hex.EncodeToString(sum[:])
	return Key{
		operation: op,
		partition: ContentPartition,
		name:      digest,
		identity:  "sha256:" + digest,
		language:  lang,
	}
}

// ReconstructKey rebuilds a Key from its persisted identity, as produced by
// Identity.
func ReconstructKey(op Operation, identity string, lang language.Code) Key {
	k := Key{operation: op, identity: identity, language: lang}
	if digest, ok := strings.CutPrefix(identity, "sha256:"); ok {
		k.partition = ContentPartition
		k.name = digest
		return k
	}
	parts := strings.Split(identity, "/")
	if len(parts) < 3 {
		k.name = identity
		return k
	}
	n := len(parts)
	k.partition = strings.Join(parts[:n-2], "/")
	k.name = parts[n-2] + "_" + parts[n-1]
	return k
}

// Operation returns the derivation kind.
func (k Key) Operation() Operation { return k.operation }

// Partition returns the grouping for storage layout: the author, or
// ContentPartition for hashed content.
func (k Key) Partition() string { return k.partition }

// Name returns the identity within its partition, without the language.
func (k Key) Name() string { return k.name }

// Identity returns the full content identity, without the language.
func (k Key) Identity() string { return k.identity }

// Language returns the target language.
func (k Key) Language() language.Code { return k.language }

// String returns "operation:identity:language".
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.operation, k.identity, k.language)
}
