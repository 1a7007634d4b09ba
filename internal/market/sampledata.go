package market

import "deediq/internal/models"

// SampleData is the bundled Tennessee data set used when no live source is
// configured.
func SampleData() []CityData {
	return []CityData{
		{
			Market: models.Market{City: "Nashville", State: "TN", Population: 694144, MedianIncome: 64015, MedianHomeValue: 315900, MedianRent: 1350, PropertyTaxRate: 0.68, VacancyRate: 6.2},
			Historical: []models.HistoricalRecord{
				{Year: 2010, Population: 601222, MedianIncome: 47372, MedianHomeValue: 187500, MedianRent: 850},
				{Year: 2012, Population: 624496, MedianIncome: 48977, MedianHomeValue: 198400, MedianRent: 900},
				{Year: 2014, Population: 644014, MedianIncome: 52028, MedianHomeValue: 215700, MedianRent: 975},
				{Year: 2016, Population: 667560, MedianIncome: 56377, MedianHomeValue: 251800, MedianRent: 1090},
				{Year: 2018, Population: 678851, MedianIncome: 60378, MedianHomeValue: 283400, MedianRent: 1200},
				{Year: 2020, Population: 689447, MedianIncome: 62300, MedianHomeValue: 298900, MedianRent: 1280},
				{Year: 2022, Population: 694144, MedianIncome: 64015, MedianHomeValue: 315900, MedianRent: 1350},
			},
			Submarkets: []models.Submarket{
				sub("East Nashville", "37206", 4.8, 12.3, 1450, 3.2, 58400, 62.5, 7.2, 4200, 32.4, 2.1, 78, 6.5),
				sub("The Gulch", "37203", 5.1, 6.5, 1850, 2.8, 82300, 78.2, 5.8, 5800, 29.1, 1.8, 92, 7.2),
				sub("Green Hills", "37215", 3.9, 5.2, 1650, 2.1, 95200, 38.5, 4.3, 3100, 42.7, 2.3, 64, 8.9),
				sub("Germantown", "37208", 4.5, 8.7, 1550, 3.0, 72500, 55.3, 6.5, 3800, 34.2, 2.0, 85, 7.4),
				sub("Music Row", "37212", 6.2, 9.4, 1400, 3.5, 62100, 68.9, 5.9, 4500, 30.8, 1.9, 88, 6.8),
				sub("Donelson", "37214", 5.8, 11.2, 1280, 4.1, 54200, 52.1, 4.8, 2800, 38.5, 2.4, 42, 6.2),
				sub("Sylvan Park", "37209", 4.2, 7.8, 1520, 2.9, 78900, 45.7, 6.1, 3600, 35.9, 2.2, 72, 7.8),
				sub("Crieve Hall", "37211", 6.5, 10.5, 1320, 3.7, 56800, 48.3, 5.2, 3200, 36.4, 2.3, 38, 6.5),
				sub("Oak Hill", "37220", 3.5, 4.8, 1680, 2.4, 102500, 28.4, 3.9, 2100, 44.2, 2.6, 28, 9.2),
				sub("Belle Meade", "37205", 3.2, 2.9, 2100, 1.8, 138700, 22.6, 3.2, 1800, 48.5, 2.4, 32, 9.6),
			},
		},
		{
			Market: models.Market{City: "Memphis", State: "TN", Population: 633104, MedianIncome: 42742, MedianHomeValue: 98200, MedianRent: 920, PropertyTaxRate: 1.02, VacancyRate: 12.4},
			Historical: []models.HistoricalRecord{
				{Year: 2010, Population: 646889, MedianIncome: 39436, MedianHomeValue: 92500, MedianRent: 730},
				{Year: 2012, Population: 653450, MedianIncome: 38982, MedianHomeValue: 88900, MedianRent: 750},
				{Year: 2014, Population: 653024, MedianIncome: 37730, MedianHomeValue: 85400, MedianRent: 780},
				{Year: 2016, Population: 652236, MedianIncome: 38230, MedianHomeValue: 87200, MedianRent: 820},
				{Year: 2018, Population: 650618, MedianIncome: 40285, MedianHomeValue: 91800, MedianRent: 860},
				{Year: 2020, Population: 638700, MedianIncome: 41228, MedianHomeValue: 95100, MedianRent: 890},
				{Year: 2022, Population: 633104, MedianIncome: 42742, MedianHomeValue: 98200, MedianRent: 920},
			},
			Submarkets: []models.Submarket{
				sub("Midtown", "38104", 8.5, 18.7, 1050, 5.8, 48200, 65.8, 4.5, 3900, 31.2, 2.0, 82, 5.8),
				sub("East Memphis", "38119", 6.2, 7.3, 1180, 3.9, 72400, 42.3, 3.8, 2600, 40.5, 2.3, 48, 8.1),
				sub("Germantown (Memphis)", "38138", 4.1, 4.2, 1450, 2.8, 98500, 24.7, 2.9, 1900, 45.3, 2.7, 35, 9.3),
				sub("Downtown Memphis", "38103", 11.3, 24.5, 950, 7.2, 38900, 72.1, 5.2, 4200, 29.7, 1.8, 88, 4.9),
				sub("Cordova", "38016", 7.8, 9.8, 1120, 4.5, 62300, 38.9, 4.1, 2200, 37.8, 2.5, 32, 7.2),
				sub("Bartlett", "38134", 5.9, 8.2, 1080, 4.2, 68700, 35.4, 3.6, 2100, 39.2, 2.6, 28, 7.6),
				sub("Parkway Village", "38115", 10.5, 21.3, 920, 6.8, 42100, 58.3, 3.2, 3200, 33.4, 2.4, 42, 5.3),
				sub("Whitehaven", "38109", 13.2, 28.9, 850, 8.4, 35800, 48.7, 2.8, 2800, 36.1, 2.7, 38, 4.2),
				sub("High Point Terrace", "38111", 9.1, 17.4, 980, 6.2, 46500, 52.6, 3.5, 3100, 34.8, 2.2, 45, 5.7),
				sub("Raleigh", "38117", 7.4, 14.6, 1020, 5.5, 51200, 44.2, 4.2, 2700, 35.6, 2.5, 38, 6.1),
			},
		},
		{
			Market: models.Market{City: "Knoxville", State: "TN", Population: 190740, MedianIncome: 45013, MedianHomeValue: 181200, MedianRent: 980, PropertyTaxRate: 0.74, VacancyRate: 8.7},
			Historical: []models.HistoricalRecord{
				{Year: 2010, Population: 178874, MedianIncome: 35492, MedianHomeValue: 138900, MedianRent: 690},
				{Year: 2012, Population: 180130, MedianIncome: 37156, MedianHomeValue: 142300, MedianRent: 720},
				{Year: 2014, Population: 184281, MedianIncome: 38924, MedianHomeValue: 148700, MedianRent: 760},
				{Year: 2016, Population: 186239, MedianIncome: 40782, MedianHomeValue: 159400, MedianRent: 820},
				{Year: 2018, Population: 187487, MedianIncome: 42589, MedianHomeValue: 168900, MedianRent: 890},
				{Year: 2020, Population: 189339, MedianIncome: 43821, MedianHomeValue: 175200, MedianRent: 940},
				{Year: 2022, Population: 190740, MedianIncome: 45013, MedianHomeValue: 181200, MedianRent: 980},
			},
			Submarkets: []models.Submarket{
				sub("Downtown Knoxville", "37902", 7.2, 22.4, 1100, 5.1, 41200, 68.5, 5.8, 3600, 30.4, 1.9, 84, 5.2),
				sub("Sequoyah Hills", "37919", 4.3, 3.8, 1350, 2.3, 118500, 22.1, 3.1, 1600, 47.2, 2.3, 52, 9.4),
				sub("Bearden", "37919", 5.8, 6.5, 1150, 3.4, 72800, 41.7, 4.5, 2400, 38.9, 2.2, 58, 8.2),
				sub("West Knoxville", "37922", 6.4, 8.9, 1050, 3.8, 58900, 45.3, 4.2, 2200, 36.5, 2.3, 42, 7.1),
				sub("Farragut", "37934", 4.9, 4.1, 1280, 2.7, 92300, 28.6, 3.6, 1800, 43.1, 2.6, 28, 9.1),
				sub("North Knoxville", "37917", 9.8, 17.6, 850, 6.2, 38700, 52.8, 3.8, 2900, 33.7, 2.4, 48, 5.4),
				sub("South Knoxville", "37916", 8.5, 15.3, 920, 5.8, 42800, 48.9, 4.6, 2700, 34.2, 2.3, 52, 5.8),
				sub("East Knoxville", "37920", 10.2, 19.8, 800, 6.5, 36200, 55.3, 3.4, 3100, 32.8, 2.5, 44, 4.9),
				sub("Fort Sanders", "37921", 6.1, 28.5, 950, 4.2, 28900, 82.4, 5.1, 4800, 22.3, 1.7, 76, 6.2),
				sub("Fountain City", "37918", 7.8, 11.9, 980, 4.8, 51200, 42.1, 4.1, 2500, 37.4, 2.4, 38, 6.8),
				sub("Cedar Bluff", "37923", 5.2, 5.7, 1220, 3.1, 81400, 35.2, 3.9, 2000, 41.6, 2.4, 34, 8.4),
			},
		},
	}
}

func sub(name, zip string, vacancy, poverty, rent, unemployment, income, renterPct, rentGrowth, density, age, household float64, walk int, school float64) models.Submarket {
	return models.Submarket{
		Name:              name,
		ZipCode:           zip,
		VacancyRate:       vacancy,
		PovertyLevel:      poverty,
		MedianRent:        rent,
		UnemploymentRate:  unemployment,
		MedianIncome:      income,
		RenterOccupiedPct: renterPct,
		YoYRentGrowth:     rentGrowth,
		PopulationDensity: density,
		MedianAge:         age,
		AvgHouseholdSize:  household,
		WalkScore:         walk,
		SchoolRating:      school,
	}
}
