package competition

import (
	"context"

	"github.com/justinjudd/leaguebracket/models"
	"github.com/sirupsen/logrus"
)

// LogNotifier writes player notices to a logger instead of delivering them
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) MatchesCreated(ctx context.Context, notice models.MatchNotice) error {
	for _, m := range notice.Matches {
		n.log.WithFields(logrus.Fields{
			"player":   notice.PlayerID,
			"cohort":   notice.Cohort.String(),
			"match":    m.ID,
			"round":    m.RoundName(),
			"opponent": models.Opponent(m, notice.PlayerID),
			"dates":    len(m.CandidateDates),
		}).Info("match scheduled")
	}
	return nil
}

func (n *LogNotifier) FinalPosition(ctx context.Context, notice models.PositionNotice) error {
	entry := n.log.WithFields(logrus.Fields{
		"player": notice.PlayerID,
		"cohort": notice.Position.Cohort.String(),
		"rank":   notice.Ordinal,
		"points": notice.Position.Points,
	})
	if notice.Position.Narrative != "" {
		entry = entry.WithField("narrative", notice.Position.Narrative)
	}
	entry.Info("final position")
	return nil
}
