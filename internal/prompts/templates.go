package prompts

var defaultTemplates = []Template{
	// Delivery
	{
		ID: "delivery_welcome", Category: CategoryDelivery, Kind: KindWelcome,
		Text: "Hi! I'm your delivery assistant. What would you like to order today? I can search restaurants, place orders and track deliveries.",
	},
	{
		ID: "delivery_restaurant_suggestions", Category: CategoryDelivery, Kind: KindSuggestion,
		Text:      "{{if .cuisine}}Based on your taste for {{.cuisine}} food, here{{else}}Here{{end}} are some restaurants:\n\n{{.restaurant_list}}\n\nWant to see a menu or more options?",
		Variables: []string{"cuisine", "restaurant_list"},
	},
	{
		ID: "delivery_order_confirmation", Category: CategoryDelivery, Kind: KindConfirmation,
		Text:      "Order {{.order_id}} confirmed!\n\n{{.item}} from {{.restaurant}}\nTotal: ${{.total}} charged to {{.method}}\nEstimated delivery: {{.eta}}\n\nI'll message you as it moves along.",
		Variables: []string{"order_id", "item", "restaurant", "total", "method", "eta"},
	},
	{
		ID: "delivery_tracking_update", Category: CategoryDelivery, Kind: KindInstruction,
		Text:      "Order {{.order_id}} is {{.status}}.\nEstimated delivery: {{.eta}}",
		Variables: []string{"order_id", "status", "eta"},
	},
	{
		ID: "delivery_no_restaurants", Category: CategoryDelivery, Kind: KindWarning,
		Text:      "Sorry, no restaurants match {{.search_criteria}}.\n\nYou could:\n1. Adjust your preferences\n2. See every restaurant\n3. Try another cuisine",
		Variables: []string{"search_criteria"},
	},
	{
		ID: "delivery_menu", Category: CategoryDelivery, Kind: KindInstruction,
		Text:      "The {{.restaurant_name}} menu:\n\n{{.menu_items}}\n\nPrice range: {{.price_range}} | Rating: {{.rating}}/5 | Delivery: {{.delivery_time}} min\n\nWhat would you like to order?",
		Variables: []string{"restaurant_name", "menu_items", "price_range", "rating", "delivery_time"},
	},
	{
		ID: "delivery_popular_dishes", Category: CategoryDelivery, Kind: KindSuggestion,
		Text:      "Some popular dishes right now:\n\n{{.dishes}}",
		Variables: []string{"dishes"},
	},
	{
		ID: "delivery_payment_failed", Category: CategoryDelivery, Kind: KindError,
		Text:      "Your payment could not be completed: {{.reason}}\nNo order was placed.",
		Variables: []string{"reason"},
	},
	{
		ID: "delivery_cancelled", Category: CategoryDelivery, Kind: KindSuccess,
		Text:      "Order {{.order_id}} has been cancelled.",
		Variables: []string{"order_id"},
	},

	// Reservations
	{
		ID: "reservation_welcome", Category: CategoryReservation, Kind: KindWelcome,
		Text: "Welcome! I can book you a table. Tell me the restaurant, date, time and party size.",
	},
	{
		ID: "reservation_confirmed", Category: CategoryReservation, Kind: KindSuccess,
		Text:      "Your table is booked!\n\nRestaurant: {{.restaurant_name}}\nParty: {{.party_size}}\nDate: {{.date}}\nTime: {{.time}}\nCode: {{.reservation_id}}\n{{if .special_requests}}Requests: {{.special_requests}}\n{{end}}\nPlease arrive 10 minutes early.",
		Variables: []string{"restaurant_name", "party_size", "date", "time", "reservation_id", "special_requests"},
	},
	{
		ID: "reservation_no_availability", Category: CategoryReservation, Kind: KindWarning,
		Text:      "Sorry, {{.restaurant_name}} has no table for {{.party_size}} on {{.date}} at {{.time}}. {{.reason}}",
		Variables: []string{"restaurant_name", "party_size", "date", "time", "reason"},
	},
	{
		ID: "reservation_alternatives", Category: CategoryReservation, Kind: KindSuggestion,
		Text:      "{{.restaurant_name}} can seat {{.party_size}} on {{.date}} at:\n\n{{.alternative_times}}\n\nDoes one of these work?",
		Variables: []string{"restaurant_name", "party_size", "date", "alternative_times"},
	},
	{
		ID: "reservation_missing_info", Category: CategoryReservation, Kind: KindRequestInfo,
		Text:      "To book a table I still need:\n\n{{.missing_fields_list}}",
		Variables: []string{"missing_fields_list"},
	},

	// Design
	{
		ID: "design_welcome", Category: CategoryDesign, Kind: KindWelcome,
		Text: "Hi! I'm your interior design assistant. Which room would you like to design?",
	},
	{
		ID: "design_proposal", Category: CategoryDesign, Kind: KindSuggestion,
		Text:      "Design {{.design_id}}: a {{.style}} {{.room_type}} of {{.dimensions}}\n\nBudget: ${{.total_cost}} of ${{.budget}} (${{.remaining}} left)\nSpace efficiency: {{.efficiency}}%\n\nFurniture:\n{{.furniture_list}}\n\nRecommendations:\n{{.recommendations}}",
		Variables: []string{"design_id", "style", "room_type", "dimensions", "total_cost", "budget", "remaining", "efficiency", "furniture_list", "recommendations"},
	},
	{
		ID: "design_style_suggestions", Category: CategoryDesign, Kind: KindSuggestion,
		Text:      "For a {{.room_type}} with a ${{.budget}} budget:\n\n{{.style_options}}",
		Variables: []string{"room_type", "budget", "style_options"},
	},

	// Scaffold
	{
		ID: "scaffold_welcome", Category: CategoryScaffold, Kind: KindWelcome,
		Text: "Hi! Describe your API (models, fields and endpoints) and I'll generate a Go REST scaffold.",
	},
	{
		ID: "scaffold_analysis", Category: CategoryScaffold, Kind: KindInstruction,
		Text:      "Specification analysis:\n\nComplexity: {{.complexity}}/10\nModels: {{.models_count}}\nEndpoints: {{.endpoints_count}}\nEstimated effort: {{.estimated_hours}} hours\n{{if .missing}}\nMissing:\n{{.missing}}\n{{end}}",
		Variables: []string{"complexity", "models_count", "endpoints_count", "estimated_hours", "missing"},
	},
	{
		ID: "scaffold_complete", Category: CategoryScaffold, Kind: KindSuccess,
		Text:      "Scaffold {{.generation_id}} generated for {{.api_name}}.\n\nFiles:\n{{.files}}\n\nNext: {{.next_steps}}",
		Variables: []string{"generation_id", "api_name", "files", "next_steps"},
	},

	// General
	{
		ID: "general_error", Category: CategoryGeneral, Kind: KindError,
		Text:      "Something went wrong: {{.error_message}}\n\nPlease try again or rephrase your request.",
		Variables: []string{"error_message"},
	},
	{
		ID: "general_clarification", Category: CategoryGeneral, Kind: KindClarification,
		Text:      "I'm not sure I understood. Could you be more specific about:\n\n{{.clarification_points}}",
		Variables: []string{"clarification_points"},
	},
	{
		ID: "general_help", Category: CategoryGeneral, Kind: KindInstruction,
		Text:      "Here's what I can do:\n\n{{.commands}}\n\nOr just tell me what you need.",
		Variables: []string{"commands"},
	},
}
