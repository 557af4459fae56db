package echoapi

import (
	_ "embed"
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/portal"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures are the summary figures of each role's dashboard, as sent in the envelope's data.
type Fixtures map[user.Role]map[string]interface{}

// ParseFixtures reads YAML fixtures. Every role needs figures its dashboard can decode.
func ParseFixtures(data []byte) (Fixtures, error) {
	var raw map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing fixtures")
	}
	fx := make(Fixtures, len(raw))
	for name, figures := range raw {
		role, err := user.ParseRole(name)
		if err != nil {
			return nil, errors.Wrapf(err, "fixtures %q", name)
		}
		fx[role] = figures
	}
	for _, role := range user.AllRoles {
		figures, ok := fx[role]
		if !ok {
			return nil, errors.Errorf("no fixtures for role %q", role)
		}
		data, err := json.Marshal(figures)
		if err != nil {
			return nil, errors.Wrapf(err, "fixtures %q", role)
		}
		if _, err = portal.DecodeSummary(role, data); err != nil {
			return nil, errors.Wrapf(err, "fixtures %q", role)
		}
	}
	return fx, nil
}

func DefaultFixtures() Fixtures {
	fx, err := ParseFixtures(defaultFixtures)
	if err != nil {
		panic(err)
	}
	return fx
}

// summary returns a copy of role's figures for the session user.
func (fx Fixtures) summary(claims Claims) map[string]interface{} {
	out := make(map[string]interface{}, len(fx[claims.Role])+1)
	for k, v := range fx[claims.Role] {
		out[k] = v
	}
	out["user"] = portal.SummaryUser{Name: claims.Name, Role: string(claims.Role), Email: claims.Email}
	return out
}
