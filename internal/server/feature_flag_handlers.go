package server

import "github.com/gofiber/fiber/v2"

type featureFlagsView struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
	Mounted   map[string]bool   `json:"mounted"`
	Rollouts  []string          `json:"rollouts"`
}

// GetFeatureFlags reports the MODULES configuration and how it evaluates
// for the calling admin.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	flags := s.featureFlags
	view := featureFlagsView{
		Raw:       flags.Raw(),
		Evaluated: flags.Snapshot(currentUserID(c)),
		Mounted:   make(map[string]bool, len(moduleNames)),
		Rollouts:  []string{},
	}
	for _, name := range moduleNames {
		view.Mounted[name] = flags.Mounted(name)
		if flags.Rollout(name) {
			view.Rollouts = append(view.Rollouts, name)
		}
	}
	return c.JSON(view)
}
