package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/naveenspark/hackforge/pkg/domain"
)

func TestHackathonFilterQuery(t *testing.T) {
	tests := []struct {
		name string
		f    HackathonFilter
		want string
	}{
		{"empty", HackathonFilter{}, ""},
		{"blank search omitted", HackathonFilter{Search: "  "}, ""},
		{"status", HackathonFilter{Status: domain.StatusUpcoming}, "status=upcoming"},
		{"themes joined", HackathonFilter{Themes: []string{"ai", "", "web3"}}, "themes=ai%2Cweb3"},
		{"all", HackathonFilter{Search: "green", Status: domain.StatusEnded, Themes: []string{"climate"}}, "search=green&status=ended&themes=climate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Query().Encode())
		})
	}
}

func TestHackathonFilterValidate(t *testing.T) {
	assert.NoError(t, HackathonFilter{}.Validate())
	assert.NoError(t, HackathonFilter{Status: domain.StatusDraft}.Validate())
	assert.Error(t, HackathonFilter{Status: "archived"}.Validate())
}

func TestProjectAndTeamFilterQuery(t *testing.T) {
	assert.Equal(t, "hackathonId=h1&teamId=t1", ProjectFilter{HackathonID: "h1", TeamID: "t1"}.Query().Encode())
	assert.Equal(t, "", ProjectFilter{}.Query().Encode())
	assert.Equal(t, "hackathonId=h1&lookingForMembers=true", TeamFilter{HackathonID: "h1", LookingForMembers: true}.Query().Encode())
	assert.Equal(t, "search=ml", TeamFilter{Search: "ml"}.Query().Encode())
}
