package domain

// Character is the lightweight character view the engine needs: identity
// for penalty attribution and skills for retry gating. Full character
// sheets live outside this module.
type Character struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Level  int            `json:"level,omitempty"`
	Skills map[string]int `json:"skills,omitempty"`
}

// Skill returns the character's level in the named skill, or zero when the
// skill is absent.
func (c Character) Skill(name string) int {
	if c.Skills == nil {
		return 0
	}
	return c.Skills[name]
}

// SessionContext carries the narrative surroundings the reasoner needs to
// stay consistent with the campaign.
type SessionContext struct {
	CampaignID string `json:"campaign_id,omitempty"`
	Scene      string `json:"scene,omitempty"`
	Tone       string `json:"tone,omitempty"`
}
