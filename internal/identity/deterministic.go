package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Keys are namespaced by the helpers below so a tag and a document with the
// same name never share an identifier.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(trimmed))
	}
	return uid
}

// DocumentUUID identifies a document across builds. It depends on the id
// only, so a post keeps its feed GUID when its title or body is edited.
func DocumentUUID(documentID string) uuid.UUID {
	return UUID("folio:document:" + strings.TrimSpace(documentID))
}

// TagUUID identifies a tag by its folded key.
func TagUUID(tagKey string) uuid.UUID {
	return UUID("folio:tag:" + strings.TrimSpace(tagKey))
}

// FeedUUID identifies a feed by its site-relative path.
func FeedUUID(feedPath string) uuid.UUID {
	return UUID("folio:feed:" + strings.TrimSpace(feedPath))
}

// URN renders id in the urn:uuid form used by Atom entry ids.
func URN(id uuid.UUID) string {
	return id.URN()
}
