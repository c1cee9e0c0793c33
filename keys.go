package keycloakauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FetchRealmKey looks up the public key the realm currently signs tokens with
// for algorithm. accessToken needs permission to view the realm keys.
func FetchRealmKey(ctx context.Context, client *http.Client, keysURL, algorithm, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keysURL, nil)
	if err != nil {
		return "", fmt.Errorf("could not create keys request (%w)", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not fetch realm keys (%w)", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("could not fetch realm keys: %d %s", res.StatusCode, body)
	}

	keys := realmKeys{}
	if err := json.NewDecoder(res.Body).Decode(&keys); err != nil {
		return "", fmt.Errorf("could not decode realm keys (%w)", err)
	}

	return keys.publicKey(algorithm)
}

func (k realmKeys) publicKey(algorithm string) (string, error) {
	if _, ok := k.Active[algorithm]; !ok {
		return "", fmt.Errorf("%w %s", ErrKeyNotFound, algorithm)
	}

	for _, key := range k.Keys {
		if key.Algorithm != algorithm {
			continue
		}
		// only the first key for an algorithm is considered
		if key.PublicKey == "" {
			return "", fmt.Errorf("key for %s has no publicKey", algorithm)
		}
		return key.PublicKey, nil
	}

	return "", fmt.Errorf("%w %s", ErrKeyNotFound, algorithm)
}

// armorPublicKey wraps raw base64 key material in PEM armor, if it is not already
func armorPublicKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "-----BEGIN") {
		return key
	}
	return pemHeader + "\n" + key + "\n" + pemFooter
}
