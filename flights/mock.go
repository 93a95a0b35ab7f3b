package flights

import (
	"fmt"
	"math/rand"

	"wayfarer/models"
	"wayfarer/utils"
)

var mockAirlines = []string{
	"American Airlines", "United Airlines", "Delta Air Lines",
	"JetBlue Airways", "Southwest Airlines", "Alaska Airlines",
}

var classBasePrices = map[string]float64{
	"economy":         300,
	"premium_economy": 600,
	"business":        1200,
	"first":           2500,
}

// generateMockOffers produces realistic-looking offers when the Amadeus API
// is unavailable, mirroring its pricing spread: per-class base price, ±30%
// variation, mostly direct flights, return trips at roughly 1.85x.
func (c *Client) generateMockOffers(trip *models.TripInfo, returnDate string) []models.Offer {
	basePrice, ok := classBasePrices[trip.FlightClass]
	if !ok {
		basePrice = classBasePrices["economy"]
	}
	priceMultiplier := 1.0
	if returnDate != "" {
		priceMultiplier = 1.85
	}
	travelers := trip.Travelers
	if travelers < 1 {
		travelers = 1
	}

	n := 8 + rand.Intn(5)
	offers := make([]models.Offer, 0, n)
	for i := 0; i < n; i++ {
		hour := 6 + (i*2)%18
		minute := []int{0, 15, 30, 45}[rand.Intn(4)]
		durHours := 3 + rand.Intn(10)
		durMinutes := []int{0, 15, 30, 45}[rand.Intn(4)]

		arrHour := (hour + durHours) % 24
		arrMin := (minute + durMinutes) % 60
		if minute+durMinutes >= 60 {
			arrHour = (arrHour + 1) % 24
		}

		price := basePrice * (0.7 + rand.Float64()*0.6) * priceMultiplier * float64(travelers)

		offer := models.Offer{
			ID:            utils.GenerateRandomString(10),
			Kind:          "flight",
			Provider:      "demo",
			Airline:       mockAirlines[rand.Intn(len(mockAirlines))],
			FlightNumber:  fmt.Sprint(100 + rand.Intn(9900)),
			DepartureTime: fmt.Sprintf("%02d:%02d", hour, minute),
			ArrivalTime:   fmt.Sprintf("%02d:%02d", arrHour, arrMin),
			Duration:      fmt.Sprintf("%dh %dm", durHours, durMinutes),
			Price:         float64(int(price)),
			Currency:      "USD",
			ClassType:     trip.FlightClass,
			Stops:         mockStops(),
			TripType:      "one_way",
		}

		if returnDate != "" {
			retHour := 14 + (i*2)%10
			retMinute := []int{0, 15, 30, 45}[rand.Intn(4)]
			retDurHours := 3 + rand.Intn(10)
			retDurMinutes := []int{0, 15, 30, 45}[rand.Intn(4)]
			retArrHour := (retHour + retDurHours) % 24
			retArrMin := (retMinute + retDurMinutes) % 60
			if retMinute+retDurMinutes >= 60 {
				retArrHour = (retArrHour + 1) % 24
			}

			offer.TripType = "return"
			offer.ReturnDate = returnDate
			offer.ReturnAirline = mockAirlines[rand.Intn(len(mockAirlines))]
			offer.ReturnFlightNumber = fmt.Sprint(100 + rand.Intn(9900))
			offer.ReturnDepartureTime = fmt.Sprintf("%02d:%02d", retHour, retMinute)
			offer.ReturnArrivalTime = fmt.Sprintf("%02d:%02d", retArrHour, retArrMin)
			offer.ReturnDuration = fmt.Sprintf("%dh %dm", retDurHours, retDurMinutes)
			offer.ReturnStops = mockStops()
		}

		offers = append(offers, offer)
	}
	return offers
}

// 70% direct, 25% one stop, 5% two.
func mockStops() int {
	p := rand.Float64()
	switch {
	case p < 0.7:
		return 0
	case p < 0.95:
		return 1
	default:
		return 2
	}
}
