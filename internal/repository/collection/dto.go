package collection

import (
	"encoding/json"
	"fmt"
	"strconv"

	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
)

// memberRow is the JSON representation of an authorized member.
type memberRow struct {
	ID          string `json:"id"`
	AccessRight string `json:"access_right"`
}

// collectionFromHash hydrates a domain Collection from an HGETALL result map.
func collectionFromHash(m map[string]string) (domcol.Collection, error) {
	p := domcol.Params{
		ID:          m["id"],
		Kind:        domcol.Kind(m["entity_type"]),
		Name:        m["name"],
		Description: m["description"],
		Filters:     m["filters"],
	}

	var err error
	if p.IncludeInferences, err = parseFlag(m, "include_inferences"); err != nil {
		return domcol.Collection{}, err
	}
	if p.ScoreToConfidence, err = parseFlag(m, "score_to_confidence"); err != nil {
		return domcol.Collection{}, err
	}
	if p.TaxiiPublic, err = parseFlag(m, "taxii_public"); err != nil {
		return domcol.Collection{}, err
	}
	if raw, ok := m["ingestion_running"]; ok && raw != "" {
		running, err := strconv.ParseBool(raw)
		if err != nil {
			return domcol.Collection{}, fmt.Errorf("invalid ingestion_running: %w", err)
		}
		p.IngestionRunning = &running
	}

	if raw := m["authorized_members"]; raw != "" {
		var rows []memberRow
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			return domcol.Collection{}, fmt.Errorf("unmarshal authorized_members: %w", err)
		}
		p.AuthorizedMembers = make([]domcol.Member, len(rows))
		for i, r := range rows {
			p.AuthorizedMembers[i] = domcol.Member{PrincipalID: r.ID, AccessRight: domcol.AccessRight(r.AccessRight)}
		}
	}

	return domcol.New(p)
}

// parseFlag reads a boolean hash field; absent means false.
func parseFlag(m map[string]string, key string) (bool, error) {
	raw, ok := m[key]
	if !ok || raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
