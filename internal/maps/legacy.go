package maps

// legacyCatalogue is the built-in layer list used when neither CRCON
// nor the persistent store can provide one. It tracks the retail HLL
// layer set and ages as the game updates, which is why the live
// refresh path exists.
var legacyCatalogue = map[string]map[string][]Variant{
	"warfare": {
		"Carentan": {
			{ID: "carentan_warfare", Label: "Day"},
			{ID: "carentan_warfare_night", Label: "Night"},
		},
		"Driel": {
			{ID: "driel_warfare", Label: "Day"},
			{ID: "driel_warfare_night", Label: "Night"},
		},
		"El Alamein": {
			{ID: "elalamein_warfare", Label: "Day"},
			{ID: "elalamein_warfare_night", Label: "Dusk"},
		},
		"Elsenborn Ridge": {
			{ID: "elsenbornridge_warfare_day", Label: "Day"},
			{ID: "elsenbornridge_warfare_morning", Label: "Dawn"},
			{ID: "elsenbornridge_warfare_night", Label: "Night"},
		},
		"Foy": {
			{ID: "foy_warfare", Label: "Day"},
			{ID: "foy_warfare_night", Label: "Night"},
		},
		"Hill 400": {
			{ID: "hill400_warfare", Label: "Day"},
		},
		"Hurtgen Forest": {
			{ID: "hurtgenforest_warfare_V2", Label: "Day"},
			{ID: "hurtgenforest_warfare_V2_night", Label: "Night"},
		},
		"Kharkov": {
			{ID: "kharkov_warfare", Label: "Day"},
			{ID: "kharkov_warfare_night", Label: "Night"},
		},
		"Kursk": {
			{ID: "kursk_warfare", Label: "Day"},
			{ID: "kursk_warfare_night", Label: "Night"},
		},
		"Mortain": {
			{ID: "mortain_warfare_day", Label: "Day"},
			{ID: "mortain_warfare_dusk", Label: "Dusk"},
			{ID: "mortain_warfare_overcast", Label: "Overcast"},
		},
		"Omaha Beach": {
			{ID: "omahabeach_warfare", Label: "Day"},
			{ID: "omahabeach_warfare_night", Label: "Dusk"},
		},
		"Purple Heart Lane": {
			{ID: "PHL_L_1944_Warfare", Label: "Rain"},
			{ID: "PHL_L_1944_Warfare_Night", Label: "Night"},
		},
		"Remagen": {
			{ID: "remagen_warfare", Label: "Day"},
			{ID: "remagen_warfare_night", Label: "Night"},
		},
		"Stalingrad": {
			{ID: "stalingrad_warfare", Label: "Day"},
			{ID: "stalingrad_warfare_night", Label: "Night"},
		},
		"St. Marie Du Mont": {
			{ID: "stmariedumont_warfare", Label: "Day"},
			{ID: "stmariedumont_warfare_night", Label: "Night"},
		},
		"St. Mere Eglise": {
			{ID: "stmereeglise_warfare", Label: "Day"},
			{ID: "stmereeglise_warfare_night", Label: "Night"},
		},
		"Tobruk": {
			{ID: "tobruk_warfare_day", Label: "Day"},
			{ID: "tobruk_warfare_dusk", Label: "Dusk"},
			{ID: "tobruk_warfare_morning", Label: "Dawn"},
		},
		"Utah Beach": {
			{ID: "utahbeach_warfare", Label: "Day"},
			{ID: "utahbeach_warfare_night", Label: "Night"},
		},
	},
	"offensive": {
		"Carentan": {
			{ID: "carentan_offensive_ger", Label: "GER Attack"},
			{ID: "carentan_offensive_us", Label: "US Attack"},
		},
		"Driel": {
			{ID: "driel_offensive_ger", Label: "GER Attack"},
			{ID: "driel_offensive_us", Label: "GB Attack"},
		},
		"El Alamein": {
			{ID: "elalamein_offensive_CW", Label: "GB Attack"},
			{ID: "elalamein_offensive_ger", Label: "GER Attack"},
		},
		"Elsenborn Ridge": {
			{ID: "elsenbornridge_offensiveUS_day", Label: "US Attack (Day)"},
			{ID: "elsenbornridge_offensiveUS_morning", Label: "US Attack (Dawn)"},
			{ID: "elsenbornridge_offensiveUS_night", Label: "US Attack (Night)"},
			{ID: "elsenbornridge_offensiveger_day", Label: "GER Attack (Day)"},
			{ID: "elsenbornridge_offensiveger_morning", Label: "GER Attack (Dawn)"},
			{ID: "elsenbornridge_offensiveger_night", Label: "GER Attack (Night)"},
		},
		"Foy": {
			{ID: "foy_offensive_ger", Label: "GER Attack"},
			{ID: "foy_offensive_us", Label: "US Attack"},
		},
		"Hill 400": {
			{ID: "hill400_offensive_US", Label: "US Attack"},
			{ID: "hill400_offensive_ger", Label: "GER Attack"},
		},
		"Hurtgen Forest": {
			{ID: "hurtgenforest_offensive_US", Label: "US Attack"},
			{ID: "hurtgenforest_offensive_ger", Label: "GER Attack"},
		},
		"Kharkov": {
			{ID: "kharkov_offensive_ger", Label: "GER Attack"},
			{ID: "kharkov_offensive_rus", Label: "RUS Attack"},
		},
		"Kursk": {
			{ID: "kursk_offensive_ger", Label: "GER Attack"},
			{ID: "kursk_offensive_rus", Label: "RUS Attack"},
		},
		"Mortain": {
			{ID: "mortain_offensiveUS_day", Label: "US Attack (Day)"},
			{ID: "mortain_offensiveUS_dusk", Label: "US Attack (Dusk)"},
			{ID: "mortain_offensiveUS_overcast", Label: "US Attack (Overcast)"},
			{ID: "mortain_offensiveger_day", Label: "GER Attack (Day)"},
			{ID: "mortain_offensiveger_dusk", Label: "GER Attack (Dusk)"},
			{ID: "mortain_offensiveger_overcast", Label: "GER Attack (Overcast)"},
		},
		"Omaha Beach": {
			{ID: "omahabeach_offensive_ger", Label: "GER Attack"},
			{ID: "omahabeach_offensive_us", Label: "US Attack"},
		},
		"Purple Heart Lane": {
			{ID: "PHL_L_1944_OffensiveGER", Label: "GER Attack"},
			{ID: "PHL_L_1944_OffensiveUS", Label: "US Attack"},
		},
		"Remagen": {
			{ID: "remagen_offensive_ger", Label: "GER Attack"},
			{ID: "remagen_offensive_us", Label: "US Attack"},
		},
		"Stalingrad": {
			{ID: "stalingrad_offensive_ger", Label: "GER Attack"},
			{ID: "stalingrad_offensive_rus", Label: "RUS Attack"},
		},
		"St. Marie Du Mont": {
			{ID: "stmariedumont_off_ger", Label: "GER Attack"},
			{ID: "stmariedumont_off_us", Label: "US Attack"},
		},
		"St. Mere Eglise": {
			{ID: "stmereeglise_offensive_ger", Label: "GER Attack"},
			{ID: "stmereeglise_offensive_us", Label: "US Attack"},
		},
		"Tobruk": {
			{ID: "tobruk_offensivebritish_day", Label: "GB Attack (Day)"},
			{ID: "tobruk_offensivebritish_dusk", Label: "GB Attack (Dusk)"},
			{ID: "tobruk_offensivebritish_morning", Label: "GB Attack (Dawn)"},
			{ID: "tobruk_offensiveger_day", Label: "GER Attack (Day)"},
			{ID: "tobruk_offensiveger_dusk", Label: "GER Attack (Dusk)"},
			{ID: "tobruk_offensiveger_morning", Label: "GER Attack (Dawn)"},
		},
		"Utah Beach": {
			{ID: "utahbeach_offensive_ger", Label: "GER Attack"},
			{ID: "utahbeach_offensive_us", Label: "US Attack"},
		},
	},
	"skirmish": {
		"Carentan": {
			{ID: "CAR_S_1944_Day_P_Skirmish", Label: "Day"},
			{ID: "CAR_S_1944_Dusk_P_Skirmish", Label: "Dusk"},
			{ID: "CAR_S_1944_Rain_P_Skirmish", Label: "Rain"},
		},
		"Driel": {
			{ID: "DRL_S_1944_Day_P_Skirmish", Label: "Day"},
			{ID: "DRL_S_1944_Night_P_Skirmish", Label: "Night"},
			{ID: "DRL_S_1944_P_Skirmish", Label: "Dawn"},
		},
		"El Alamein": {
			{ID: "ELA_S_1942_Night_P_Skirmish", Label: "Dusk"},
			{ID: "ELA_S_1942_P_Skirmish", Label: "Day"},
		},
		"Elsenborn Ridge": {
			{ID: "elsenbornridge_skirmish_day", Label: "Day"},
			{ID: "elsenbornridge_skirmish_morning", Label: "Dawn"},
			{ID: "elsenbornridge_skirmish_night", Label: "Night"},
		},
		"Hill 400": {
			{ID: "HIL_S_1944_Day_P_Skirmish", Label: "Day"},
			{ID: "HIL_S_1944_Dusk_P_Skirmish", Label: "Dusk"},
		},
		"Mortain": {
			{ID: "mortain_skirmish_day", Label: "Day"},
			{ID: "mortain_skirmish_dusk", Label: "Dusk"},
			{ID: "mortain_skirmish_overcast", Label: "Overcast"},
		},
		"Purple Heart Lane": {
			{ID: "PHL_S_1944_Morning_P_Skirmish", Label: "Dawn"},
			{ID: "PHL_S_1944_Night_P_Skirmish", Label: "Night"},
			{ID: "PHL_S_1944_Rain_P_Skirmish", Label: "Rain"},
		},
		"St. Marie Du Mont": {
			{ID: "SMDM_S_1944_Day_P_Skirmish", Label: "Day"},
			{ID: "SMDM_S_1944_Night_P_Skirmish", Label: "Night"},
			{ID: "SMDM_S_1944_Rain_P_Skirmish", Label: "Rain"},
		},
		"St. Mere Eglise": {
			{ID: "SME_S_1944_Day_P_Skirmish", Label: "Day"},
			{ID: "SME_S_1944_Morning_P_Skirmish", Label: "Dawn"},
			{ID: "SME_S_1944_Night_P_Skirmish", Label: "Night"},
		},
		"Tobruk": {
			{ID: "tobruk_skirmish_day", Label: "Day"},
			{ID: "tobruk_skirmish_dusk", Label: "Dusk"},
			{ID: "tobruk_skirmish_morning", Label: "Dawn"},
		},
	},
}
