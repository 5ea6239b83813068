package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survivor-api/internal/domain"
	"survivor-api/pkg/errors"
)

func TestCreateLeague_Validation(t *testing.T) {
	negative := int64(-1)

	tests := []struct {
		name    string
		req     domain.CreateLeagueRequest
		wantErr bool
	}{
		{name: "defaults", req: domain.CreateLeagueRequest{Name: "Pool"}},
		{name: "blank name", req: domain.CreateLeagueRequest{Name: "   "}, wantErr: true},
		{name: "too many strikes", req: domain.CreateLeagueRequest{Name: "Pool", MaxStrikes: 6}, wantErr: true},
		{name: "negative strikes", req: domain.CreateLeagueRequest{Name: "Pool", MaxStrikes: -1}, wantErr: true},
		{name: "start in postseason", req: domain.CreateLeagueRequest{Name: "Pool", StartWeek: 19}, wantErr: true},
		{name: "double week before start", req: domain.CreateLeagueRequest{Name: "Pool", StartWeek: 5, DoublePickWeeks: []int{4}}, wantErr: true},
		{name: "double week past super bowl", req: domain.CreateLeagueRequest{Name: "Pool", DoublePickWeeks: []int{23}}, wantErr: true},
		{name: "negative fee", req: domain.CreateLeagueRequest{Name: "Pool", EntryFee: -100}, wantErr: true},
		{name: "negative pot", req: domain.CreateLeagueRequest{Name: "Pool", PrizePotOverride: &negative}, wantErr: true},
		{name: "long display name", req: domain.CreateLeagueRequest{Name: "Pool", DisplayName: strings.Repeat("x", 41)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := tt.req
			league, err := h.leagues.CreateLeague(context.Background(), &domain.UserProfile{Sub: "commish", Name: "Commish"}, &req)
			if tt.wantErr {
				assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument), "got %v", err)
				assert.Nil(t, league)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, league.ID)
			assert.Equal(t, testSeason, league.Season)
			assert.Equal(t, 1, league.MaxStrikes)
			assert.Equal(t, 1, league.StartWeek)
		})
	}
}

func TestCreateLeague_EnrollsCommissioner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	league := h.createLeague(t, domain.CreateLeagueRequest{
		MaxStrikes:      2,
		StartWeek:       4,
		DoublePickWeeks: []int{12, 6, 12},
	})
	assert.Equal(t, []int{6, 12}, league.DoublePickWeeks)
	assert.Equal(t, "commish", league.CommissionerID)

	m := h.member(t, league.ID, "commish")
	assert.Equal(t, "Commish", m.DisplayName)
	assert.Equal(t, domain.MemberActive, m.Status)

	leagues, err := h.leagues.ListLeagues(ctx, "commish")
	require.NoError(t, err)
	require.Len(t, leagues, 1)
	assert.Equal(t, league.ID, leagues[0].ID)

	none, err := h.leagues.ListLeagues(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestJoinLeague(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	league := h.createLeague(t, domain.CreateLeagueRequest{})
	alice := &domain.UserProfile{Sub: "alice", Email: "alice@example.com"}

	m, err := h.leagues.JoinLeague(ctx, league.ID, alice, &domain.JoinLeagueRequest{})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", m.DisplayName)
	assert.Equal(t, 0, m.Strikes)

	_, err = h.leagues.JoinLeague(ctx, league.ID, alice, &domain.JoinLeagueRequest{DisplayName: "Al"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))

	_, err = h.leagues.JoinLeague(ctx, "missing", alice, &domain.JoinLeagueRequest{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	members, err := h.leagues.ListMembers(ctx, league.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = h.leagues.ListMembers(ctx, league.ID, "mallory")
	assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))

	got, err := h.leagues.GetLeague(ctx, league.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, league.Name, got.Name)

	_, err = h.leagues.GetLeague(ctx, league.ID, "mallory")
	assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))
}
