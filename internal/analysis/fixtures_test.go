package analysis

import "github.com/ppiankov/diligence/internal/model"

func sampleApp() model.Application {
	return model.Application{
		ID:          "app-1",
		CompanyName: "Acme Analytics",
		OneLiner:    "Acme is the only platform that automates revenue forecasting for SMB retailers.",
		Problem:     "Small retailers lose 8% of revenue to stockouts because forecasting tools are built for enterprises and cost too much.",
		Solution:    "A forecasting API that plugs into existing point-of-sale systems.",
		Market:      "The retail analytics market is worth $12B and growing at 14% CAGR. Competitors focus on enterprise retailers.",
		Traction:    "We reached $50k MRR in March. We have 1,200 paying customers. Revenue grew 3x year over year.",
		Founders: []model.Founder{
			{
				Name:       "Jane Doe",
				Role:       "CEO",
				Background: "Previously led growth at Shopify for 6 years. Founded and sold a retail startup that was acquired in 2019.",
				LinkedIn:   "https://linkedin.com/in/jane",
			},
			{
				Name:       "Raj Patel",
				Role:       "CTO",
				Background: "Former staff engineer at Stripe.",
			},
		},
		Metrics: map[string]string{"mrr": "$50k", "customers": "1,000"},
	}
}

func findClaim(claims []model.Claim, text string) *model.Claim {
	for i := range claims {
		if claims[i].Text == text {
			return &claims[i]
		}
	}
	return nil
}
