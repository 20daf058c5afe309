package models

import "testing"

func TestCanTransitionCampaign(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{name: "scheduled to processing", from: CampaignStatusScheduled, to: CampaignStatusProcessing, want: true},
		{name: "processing to completed", from: CampaignStatusProcessing, to: CampaignStatusCompleted, want: true},
		{name: "scheduled to failed", from: CampaignStatusScheduled, to: CampaignStatusFailed, want: true},
		{name: "processing to failed", from: CampaignStatusProcessing, to: CampaignStatusFailed, want: true},
		{name: "scheduled to completed skips processing", from: CampaignStatusScheduled, to: CampaignStatusCompleted, want: false},
		{name: "processing back to scheduled", from: CampaignStatusProcessing, to: CampaignStatusScheduled, want: false},
		{name: "completed is terminal", from: CampaignStatusCompleted, to: CampaignStatusFailed, want: false},
		{name: "failed is terminal", from: CampaignStatusFailed, to: CampaignStatusProcessing, want: false},
		{name: "completed cannot be reprocessed", from: CampaignStatusCompleted, to: CampaignStatusProcessing, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransitionCampaign(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransitionCampaign(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsValidCampaignStatus(t *testing.T) {
	for _, status := range []string{
		CampaignStatusScheduled,
		CampaignStatusProcessing,
		CampaignStatusCompleted,
		CampaignStatusFailed,
	} {
		if !IsValidCampaignStatus(status) {
			t.Errorf("IsValidCampaignStatus(%q) = false, want true", status)
		}
	}

	for _, status := range []string{"", "draft", "sending", "SCHEDULED"} {
		if IsValidCampaignStatus(status) {
			t.Errorf("IsValidCampaignStatus(%q) = true, want false", status)
		}
	}
}

func TestCampaign_Variants(t *testing.T) {
	tests := []struct {
		name     string
		campaign Campaign
		want     int
	}{
		{name: "no variants", campaign: Campaign{}, want: 0},
		{name: "single variant", campaign: Campaign{Message1: "a"}, want: 1},
		{name: "sparse variants", campaign: Campaign{Message2: "b", Message5: "e"}, want: 2},
		{name: "all variants", campaign: Campaign{Message1: "a", Message2: "b", Message3: "c", Message4: "d", Message5: "e"}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.campaign.Variants(); len(got) != tt.want {
				t.Errorf("Variants() returned %d variants, want %d", len(got), tt.want)
			}
		})
	}
}

func TestCampaign_MediaFileName(t *testing.T) {
	withName := Campaign{MediaPath: "https://files/doc.pdf", MediaName: "promo.pdf"}
	if got := withName.MediaFileName(); got != "promo.pdf" {
		t.Errorf("MediaFileName() = %q, want %q", got, "promo.pdf")
	}

	withoutName := Campaign{MediaPath: "https://files/doc.pdf"}
	if got := withoutName.MediaFileName(); got != "file" {
		t.Errorf("MediaFileName() = %q, want %q", got, "file")
	}
}
