package exchange

import "farmer_assist/pkg/models"

// SampleListings is the board shown before anyone has posted.
func SampleListings() []models.Listing {
	return []models.Listing{
		{Kind: models.ListingSell, Item: "Organic Urea Fertilizer", Quantity: "5 bags (50kg each)", Farmer: "Ramesh Kumar", Location: "Mandya, Karnataka", Contact: "+91-9876543210", Type: models.TypeFertilizer},
		{Kind: models.ListingSell, Item: "Sona Masuri Paddy Seeds", Quantity: "200 kg", Farmer: "Savitri Bai", Location: "Raichur, Karnataka", Contact: "+91-9876543211", Type: models.TypeSeed},
		{Kind: models.ListingSell, Item: "Used Power Tiller", Quantity: "1 unit", Farmer: "Gopal Reddy", Location: "Kalaburagi, Karnataka", Contact: "+91-9876543212", Type: models.TypeEquipment},
		{Kind: models.ListingSell, Item: "Organic Compost", Quantity: "1 Tonne", Farmer: "Lakshmi Devi", Location: "Mysuru, Karnataka", Contact: "+91-9876543213", Type: models.TypeFertilizer},
		{Kind: models.ListingBuy, Item: "DAP Fertilizer", Quantity: "2 bags", Farmer: "Anand Sharma", Location: "Bengaluru Rural, Karnataka", Contact: "+91-8765432109", Type: models.TypeFertilizer},
		{Kind: models.ListingBuy, Item: "Groundnut Seeds (G2-G3)", Quantity: "50 kg", Farmer: "Priya Patel", Location: "Chitradurga, Karnataka", Contact: "+91-8765432108", Type: models.TypeSeed},
		{Kind: models.ListingBuy, Item: "Rental for Sprayer Pump", Quantity: "2 days", Farmer: "Muthu Krishnan", Location: "Kolar, Karnataka", Contact: "+91-8765432107", Type: models.TypeEquipment},
		{Kind: models.ListingBuy, Item: "Ragi Seeds", Quantity: "10 kg", Farmer: "Suresh Gowda", Location: "Tumakuru, Karnataka", Contact: "+91-8765432106", Type: models.TypeSeed},
	}
}
