package constants

// SourceType identifies a power source kind on the wire (single byte).
type SourceType uint8

const (
	SourcePhotovoltaic SourceType = 1
	SourceWind         SourceType = 2
	SourceNuclear      SourceType = 3
	SourceGas          SourceType = 4
	SourceHydro        SourceType = 5
	SourceHydroStorage SourceType = 6
	SourceCoal         SourceType = 7
	SourceBattery      SourceType = 8
)

// SourceNames maps wire IDs to the canonical source names used by the
// coefficient cache and the simulation model.
var SourceNames = map[SourceType]string{
	SourcePhotovoltaic: "PHOTOVOLTAIC",
	SourceWind:         "WIND",
	SourceNuclear:      "NUCLEAR",
	SourceGas:          "GAS",
	SourceHydro:        "HYDRO",
	SourceHydroStorage: "HYDRO_STORAGE",
	SourceCoal:         "COAL",
	SourceBattery:      "BATTERY",
}

func (s SourceType) String() string {
	if name, ok := SourceNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// RoundType is the single-byte round enumerator carried in poll responses.
type RoundType uint8

const (
	RoundDay   RoundType = 1
	RoundNight RoundType = 2
)

func (r RoundType) String() string {
	switch r {
	case RoundDay:
		return "day"
	case RoundNight:
		return "night"
	default:
		return "unknown"
	}
}

// BuildingType identifies a consumer building kind on the wire (single byte).
type BuildingType uint8

const (
	BuildingResidential BuildingType = 1
	BuildingFactory     BuildingType = 2
	BuildingCommercial  BuildingType = 3
	BuildingDatacenter  BuildingType = 4
	BuildingSchool      BuildingType = 5
	BuildingHospital    BuildingType = 6
	BuildingStadium     BuildingType = 7
	BuildingFarm        BuildingType = 8
)

// BuildingNames maps wire IDs to the canonical building names used by the
// consumption cache and the simulation model.
var BuildingNames = map[BuildingType]string{
	BuildingResidential: "RESIDENTIAL",
	BuildingFactory:     "FACTORY",
	BuildingCommercial:  "COMMERCIAL",
	BuildingDatacenter:  "DATACENTER",
	BuildingSchool:      "SCHOOL",
	BuildingHospital:    "HOSPITAL",
	BuildingStadium:     "STADIUM",
	BuildingFarm:        "FARM",
}

func (b BuildingType) String() string {
	if name, ok := BuildingNames[b]; ok {
		return name
	}
	return "UNKNOWN"
}

// CoreAPI endpoint paths. Binary endpoints carry raw octet-stream bodies.
const (
	EndpointLogin               = "/login"
	EndpointRegisterBinary      = "/register_binary"
	EndpointPollBinary          = "/poll_binary"
	EndpointPostValues          = "/post_vals"
	EndpointPowerDataBinary     = "/power_data_binary"
	EndpointProdConnected       = "/prod_connected"
	EndpointConsConnected       = "/cons_connected"
	EndpointBuildingTableBinary = "/building_table_binary"
)
