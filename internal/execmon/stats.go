package execmon

import (
	"context"
	"fmt"
	"time"

	"github.com/buildtall-systems/pidebot/internal/db"
)

type AgentStats struct {
	Agent string
	db.ExecutionStats
	SuccessRate float64
	ErrorRate   float64
}

type Overview struct {
	Since           time.Time
	Total           int
	UniqueAgents    int
	SuccessRate     float64
	AvgDuration     time.Duration
	Agents          []db.AgentCount
	MostActive      string
	Recommendations []string
}

func (m *Monitor) AgentStats(ctx context.Context, agent string, since time.Time) (AgentStats, error) {
	s, err := m.store.ExecutionStats(ctx, agent, since)
	if err != nil {
		return AgentStats{}, err
	}
	out := AgentStats{Agent: agent, ExecutionStats: s}
	if s.Total > 0 {
		out.SuccessRate = float64(s.Succeeded) / float64(s.Total)
		out.ErrorRate = float64(s.Failed) / float64(s.Total)
	}
	return out, nil
}

// Overview summarizes all agents since a point in time.
func (m *Monitor) Overview(ctx context.Context, since time.Time) (Overview, error) {
	all, err := m.store.ExecutionStats(ctx, "", since)
	if err != nil {
		return Overview{}, err
	}
	agents, err := m.store.ExecutionsByAgent(ctx, since)
	if err != nil {
		return Overview{}, err
	}

	o := Overview{
		Since:        since,
		Total:        all.Total,
		UniqueAgents: len(agents),
		AvgDuration:  all.AvgDuration,
		Agents:       agents,
	}
	if all.Total == 0 {
		return o, nil
	}
	o.SuccessRate = float64(all.Succeeded) / float64(all.Total)
	o.MostActive = agents[0].Agent

	if all.AvgDuration > 10*time.Second {
		o.Recommendations = append(o.Recommendations,
			fmt.Sprintf("Average response time is high (%s). Consider optimizing.", all.AvgDuration.Round(10*time.Millisecond)))
	}
	if errRate := float64(all.Failed) / float64(all.Total); errRate > 0.1 {
		o.Recommendations = append(o.Recommendations,
			fmt.Sprintf("Error rate is high (%.1f%%). Review logs and input validation.", errRate*100))
	}
	if share := float64(agents[0].Count) / float64(all.Total); share > 0.7 {
		o.Recommendations = append(o.Recommendations,
			fmt.Sprintf("Agent %q handles %.1f%% of traffic.", agents[0].Agent, share*100))
	}
	return o, nil
}
