package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"survivor-api/internal/domain"
	"survivor-api/pkg/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultESPNBaseURL is the public ESPN site API
const DefaultESPNBaseURL = "https://site.api.espn.com"

const scoreboardPath = "/apis/site/v2/sports/football/nfl/scoreboard"

// ESPNClient reads weekly NFL scoreboards from the ESPN site API
type ESPNClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *logger.Logger
}

// NewESPNClient creates a scoreboard client. Every request is bounded by timeout and
// guarded by a circuit breaker that opens after repeated failures.
func NewESPNClient(baseURL string, timeout time.Duration, log *logger.Logger) *ESPNClient {
	if baseURL == "" {
		baseURL = DefaultESPNBaseURL
	}
	log = log.Component("espn")

	settings := gobreaker.Settings{
		Name:        "espn-scoreboard",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &ESPNClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		log:        log,
	}
}

// BreakerState reports the circuit breaker state
func (c *ESPNClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// WeekGames fetches the scoreboard for a league week
func (c *ESPNClient) WeekGames(ctx context.Context, season, week int) ([]domain.Game, error) {
	seasonType, upstreamWeek, err := domain.UpstreamWeek(week)
	if err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchScoreboard(ctx, season, seasonType, upstreamWeek)
	})
	if err != nil {
		c.log.Warn("Scoreboard fetch failed",
			zap.Int("season", season),
			zap.Int("week", week),
			zap.Error(err))
		return nil, err
	}

	return result.([]domain.Game), nil
}

func (c *ESPNClient) fetchScoreboard(ctx context.Context, season int, seasonType domain.SeasonType, week int) ([]domain.Game, error) {
	q := url.Values{}
	q.Set("dates", strconv.Itoa(season))
	q.Set("seasontype", strconv.Itoa(int(seasonType)))
	q.Set("week", strconv.Itoa(week))
	endpoint := c.baseURL + scoreboardPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build scoreboard request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoreboard request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scoreboard returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var board espnScoreboard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("failed to decode scoreboard: %w", err)
	}

	games, err := board.games()
	if err != nil {
		return nil, err
	}

	c.log.Debug("Scoreboard fetched",
		zap.Int("season", season),
		zap.Int("season_type", int(seasonType)),
		zap.Int("week", week),
		zap.Int("games", len(games)),
		zap.Duration("duration", time.Since(start)))

	return games, nil
}

// ESPN scoreboard response structures
type espnScoreboard struct {
	Events []espnEvent `json:"events"`
}

type espnEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Competitions []espnCompetition `json:"competitions"`
}

type espnCompetition struct {
	ID          string           `json:"id"`
	Date        string           `json:"date"`
	Competitors []espnCompetitor `json:"competitors"`
	Status      struct {
		Type struct {
			State     string `json:"state"`
			Completed bool   `json:"completed"`
		} `json:"type"`
	} `json:"status"`
}

type espnCompetitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		ID           string `json:"id"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
}

// ESPN dates omit seconds, e.g. 2025-09-07T17:00Z
var espnTimeLayouts = []string{"2006-01-02T15:04Z07:00", time.RFC3339}

func (b *espnScoreboard) games() ([]domain.Game, error) {
	games := make([]domain.Game, 0, len(b.Events))
	for _, ev := range b.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := ev.Competitions[0]

		game := domain.Game{ID: ev.ID, State: parseState(comp.Status.Type.State, comp.Status.Type.Completed)}

		date := comp.Date
		if date == "" {
			date = ev.Date
		}
		game.Kickoff = parseESPNTime(date)

		for _, competitor := range comp.Competitors {
			teamID, err := strconv.Atoi(competitor.Team.ID)
			if err != nil {
				return nil, fmt.Errorf("event %s: bad team id %q", ev.ID, competitor.Team.ID)
			}
			score := parseScore(competitor.Score)

			switch competitor.HomeAway {
			case "home":
				game.HomeTeamID, game.HomeScore = teamID, score
			case "away":
				game.AwayTeamID, game.AwayScore = teamID, score
			}
		}

		if game.HomeTeamID == 0 || game.AwayTeamID == 0 {
			return nil, fmt.Errorf("event %s: missing home or away competitor", ev.ID)
		}
		games = append(games, game)
	}
	return games, nil
}

func parseState(state string, completed bool) domain.GameState {
	if completed {
		return domain.GameFinal
	}
	if state == "in" {
		return domain.GameInProgress
	}
	return domain.GameScheduled
}

func parseESPNTime(s string) time.Time {
	for _, layout := range espnTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseScore(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
