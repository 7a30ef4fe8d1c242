package styles

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name:        "default",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Status: StatusColors{
		Pending:    "203",
		Soon:       "220",
		OnSchedule: "41",
		Inactive:   "243",
		Invalid:    "208",
	},
	Chrome: ChromeColors{
		Header:      "111",
		Footer:      "110",
		TabActive:   "75",
		TabInactive: "245",
		SelectedRow: "237",
		CursorRow:   "24",
	},
	Toast: ToastColors{
		Success: "41",
		Error:   "203",
		Info:    "75",
	},
}

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name:        "high-contrast",
	BorderStyle: "double",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Status: StatusColors{
		Pending:    "196",
		Soon:       "226",
		OnSchedule: "46",
		Inactive:   "250",
		Invalid:    "208",
	},
	Chrome: ChromeColors{
		Header:      "117",
		Footer:      "159",
		TabActive:   "51",
		TabInactive: "250",
		SelectedRow: "238",
		CursorRow:   "19",
	},
	Toast: ToastColors{
		Success: "46",
		Error:   "196",
		Info:    "51",
	},
}
