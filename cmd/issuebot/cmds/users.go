package cmds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"issuebot/internal/ports"
	"issuebot/internal/types"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

// UsersFile is the YAML document read by PutUsers and written by GetUsers.
type UsersFile struct {
	Users []types.UserRecord `yaml:"users"`
}

// PutUsers loads every user record in the YAML file at path into store.
// The whole file is validated before anything is written.
func PutUsers(ctx context.Context, store ports.UserStore, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc UsersFile
	if err := yaml.UnmarshalWithOptions(b, &doc, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Users) == 0 {
		return fmt.Errorf("%s: no users", path)
	}

	recs := make([]types.UserRecord, 0, len(doc.Users))
	seen := map[string]bool{}
	for i, u := range doc.Users {
		rec, err := normalize(u)
		if err != nil {
			return fmt.Errorf("%s: users[%d]: %w", path, i, err)
		}
		if seen[rec.ID] {
			return fmt.Errorf("%s: users[%d]: duplicate id %q", path, i, rec.ID)
		}
		seen[rec.ID] = true
		recs = append(recs, rec)
	}

	for _, rec := range recs {
		if err := store.PutUser(ctx, rec); err != nil {
			return fmt.Errorf("put user %s: %w", rec.ID, err)
		}
		log.WithFields(log.Fields{
			"userID": rec.ID,
			"repos":  len(rec.Repos),
		}).Info("User imported")
	}
	return nil
}

func normalize(u types.UserRecord) (types.UserRecord, error) {
	rec := types.NewUserRecord(strings.TrimSpace(u.ID))
	if rec.ID == "" {
		return rec, errors.New("missing id")
	}
	for _, r := range u.Repos {
		r = strings.TrimSpace(r)
		if !types.ValidRepoPath(r) {
			return rec, types.Err(types.ErrInvalidRepoPath, nil, "%q", r)
		}
		if !slices.Contains(rec.Repos, r) {
			rec.Repos = append(rec.Repos, r)
		}
	}
	if u.Token != nil {
		if tok := strings.TrimSpace(*u.Token); tok != "" {
			rec.Token = &tok
		}
	}
	return rec, nil
}

// GetUsers writes the records for ids, or every stored user when ids is
// empty, to w as YAML. Tokens are masked.
func GetUsers(ctx context.Context, store ports.UserStore, w io.Writer, ids ...string) error {
	if len(ids) == 0 {
		var err error
		if ids, err = store.ListUsers(ctx); err != nil {
			return err
		}
	}
	doc := UsersFile{Users: make([]types.UserRecord, 0, len(ids))}
	for _, id := range ids {
		rec, err := store.GetUser(ctx, id)
		if err != nil {
			return fmt.Errorf("get user %s: %w", id, err)
		}
		rec.ID = id
		if rec.Token != nil {
			masked := MaskToken(*rec.Token)
			rec.Token = &masked
		}
		doc.Users = append(doc.Users, rec)
	}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// MaskToken keeps the first four characters of a token.
func MaskToken(tok string) string {
	const keep = 4
	if len(tok) <= keep {
		return "****"
	}
	return tok[:keep] + "****"
}
