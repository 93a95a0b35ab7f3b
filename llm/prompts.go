package llm

import (
	"fmt"
	"strings"

	"wayfarer/models"
)

const planSystemPrompt = `You are an expert travel planner. Generate detailed, realistic travel plans in JSON format.
Be specific with activities, locations, and recommendations. Provide accurate price estimates based on the plan type.
Always return valid JSON.`

func titleCase(s string) string {
	parts := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func interestsLine(categories []string) string {
	if len(categories) == 0 {
		return "General tourism"
	}
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = titleCase(c)
	}
	return strings.Join(out, ", ")
}

func paceLine(level string) string {
	switch level {
	case "relaxed":
		return "more relaxed pace, fewer activities"
	case "active":
		return "active schedule with many activities and experiences"
	default:
		return "moderate pace with balanced activities"
	}
}

func diningLine(hotelMax float64) string {
	switch {
	case hotelMax < 150:
		return "budget-friendly options"
	case hotelMax < 300:
		return "mid-range restaurants"
	default:
		return "fine dining and premium restaurants"
	}
}

func buildPlanPrompt(req models.TravelRequest, duration int) string {
	interests := interestsLine(req.InterestCategories)

	hotelNote := ""
	nearHotel := ""
	if req.HotelAddress != "" {
		hotelNote = fmt.Sprintf("IMPORTANT: User prefers hotel location: %s. Try to suggest hotels in this area.\n", req.HotelAddress)
		nearHotel = " near " + req.HotelAddress
	}

	return fmt.Sprintf(`Generate a detailed personalized travel plan from %[1]s to %[2]s based on the following preferences:

Trip Details:
- Source: %[1]s
- Destination: %[2]s
- Start Date: %[3]s
- End Date: %[4]s
- Duration: %[5]d days (IMPORTANT: Generate itinerary for ALL %[5]d days)
- Travelers: %[6]d

Flight Preferences:
- Class: %[7]s
- Price Range: $%.0[8]f - $%.0[9]f

Hotel Preferences:
- Type: Hotel only
- Price Range: $%.0[10]f - $%.0[11]f per night
%[12]s
Activity Preferences:
- Interests: %[13]s
- Activity Level: %[14]s

Guidelines:
- Transportation: %[7]s class flights, stay within $%.0[8]f-$%.0[9]f price range
- Accommodation: Hotels in the $%.0[10]f-$%.0[11]f/night range%[15]s
- Activities: Focus on %[13]s. Activity level should be %[16]s (%[17]s)
- Dining: Match the hotel price range level - %[18]s

Generate a comprehensive travel plan in JSON format with the following structure:

{
    "plan_type": "customized",
    "summary": "Brief summary of the plan",
    "transportation": {"type": "flight", "from_location": "%[1]s", "to_location": "%[2]s", "departure_date": "%[3]s", "arrival_date": "%[3]s", "airline": "suggested airline", "class_type": "%[19]s", "price": 0.0, "duration": "estimated duration", "notes": "any relevant notes"},
    "accommodation": {"name": "hotel name suggestion", "type": "hotel", "location": "%[2]s", "price_per_night": 0.0, "total_price": 0.0, "check_in": "%[3]s", "check_out": "%[4]s", "nights": %[5]d, "rating": 0.0, "amenities": ["amenity1", "amenity2"], "notes": "accommodation notes"},
    "itinerary": [
        {"date": "YYYY-MM-DD", "day_number": 1,
         "morning": [{"name": "activity", "type": "attraction", "time": "morning", "description": "...", "location": "...", "duration": "...", "cost": 0.0}],
         "afternoon": [{"name": "activity", "type": "attraction", "time": "afternoon", "description": "...", "location": "...", "duration": "...", "cost": 0.0}],
         "evening": [{"name": "activity", "type": "restaurant", "time": "evening", "description": "...", "location": "...", "duration": "...", "cost": 0.0}]}
        ... generate for ALL %[5]d days of the trip ...
    ],
    "cost_breakdown": {"transportation": 0.0, "accommodation": 0.0, "activities": 0.0, "food": 0.0, "local_transport": 0.0, "total": 0.0, "per_person": 0.0},
    "highlights": ["highlight1", "highlight2"],
    "tips": ["tip1", "tip2"]
}

CRITICAL REQUIREMENTS:
1. Generate itinerary for ALL %[5]d days of the trip (from %[3]s to %[4]s)
2. Each day must have day_number from 1 to %[5]d, with corresponding dates
3. Fill in realistic activities for EACH day matching the interests: %[13]s
4. Include morning, afternoon, and evening activities for EVERY day
5. Provide accurate price estimates within the specified ranges (flight: $%.0[8]f-$%.0[9]f, hotel: $%.0[10]f-$%.0[11]f/night)
6. All prices should be in USD
7. The itinerary array MUST contain exactly %[5]d day objects, one for each day of the trip
8. Return ONLY valid JSON, no additional text`,
		req.Source, req.Destination, req.StartDate, req.EndDate,
		duration, req.Travelers,
		titleCase(req.FlightClass), req.FlightPriceMin, req.FlightPriceMax,
		req.HotelPriceMin, req.HotelPriceMax,
		hotelNote, interests, titleCase(req.ActivityLevel),
		nearHotel, req.ActivityLevel, paceLine(req.ActivityLevel),
		diningLine(req.HotelPriceMax), req.FlightClass)
}

const modifyPlanSystemPrompt = `You are an expert travel planner assistant. You are helping modify an existing travel itinerary based on user feedback.

Your task is to:
1. Understand the user's request for changes
2. Modify ONLY the relevant parts of the itinerary
3. Keep ALL other fields intact (source, destination, dates, travelers, costs, etc.)
4. Return the complete modified plan in the EXACT same JSON structure

Be helpful. If the user asks to:
- Add an activity: Find an appropriate time slot and add it
- Remove an activity: Remove it from the itinerary
- Change a restaurant: Replace it with a suitable alternative
- Swap days: Reorganize the itinerary accordingly
- Add more free time: Reduce activities appropriately
- Make it more active/relaxed: Adjust activity density
- Focus on specific interests: Modify activities to match

IMPORTANT:
- "transportation" must be an ARRAY (list) of transportation objects
- Keep all existing field values unless the user specifically asks to change them
- Return ONLY the JSON object, no additional text or explanation`

const modifyDaySystemPrompt = `You are an expert travel planner assistant revising a single day of an itinerary based on user feedback.

Rules:
- Modify ONLY what the user asked for; keep every other activity unchanged and in order
- If the user asks for no changes, return the day exactly as given
- Each activity keeps its "id" when it survives the change; new activities get an empty "id"
- Return ONLY a JSON object: {"day": {"day_number": N, "date": "...", "activities": [...], "notes": "..."}, "message": "short confirmation for the user", "suggest_modifications": ["optional follow-up idea", ...]}
- Every activity object has: id, name, type, time ("morning"/"afternoon"/"evening"), description, location, duration, cost`

const expandDaySystemPrompt = `You are an expert travel planner filling in one day of a trip with concrete, realistic activities.

Return ONLY a JSON object: {"day": {"day_number": N, "date": "", "activities": [...], "notes": ""}, "message": "one-sentence summary for the user"}
Each activity has: name, type ("attraction"/"restaurant"/"activity"), time ("morning"/"afternoon"/"evening"), description, location, duration, cost. Give morning, afternoon and evening coverage.`

const classifySystemPrompt = `You are the intent classifier for a travel-planning assistant. Read the user's message in the context of the conversation and the current workflow state, and pick exactly one action.

Actions:
- "advance_info": the user supplies or confirms trip details (destination, dates or day count, traveler count, budget, preferences). Extract them into "trip_info" (fields: source, destination, start_date, end_date, duration_days, travelers, flight_class, flight_price_min, flight_price_max, hotel_address, hotel_price_min, hotel_price_max, interest_categories, activity_level). Only fill fields the user actually stated.
- "expand_day": the user asks to plan out a specific day. Set "day".
- "revise_day": the user asks to change a day that already has activities. Set "day".
- "revise_plan": the user asks to change the overall plan.
- "search_flights": the user asks to look for flights.
- "search_hotels": the user asks to look for hotels or places to stay.
- "finalize": the user wants to lock in the plan.
- "chat": anything else. Put a helpful, concise answer in "reply".

Return ONLY a JSON object: {"kind": "...", "day": 0, "trip_info": {...} or null, "reply": "..."}`
