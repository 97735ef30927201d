package examples

// Scalar predictor fields.
const (
	ZenithAngleName           = "zenith_angle_radians"
	LatitudeName              = "latitude_deg_n"
	LongitudeName             = "longitude_deg_e"
	AlbedoName                = "albedo"
	ColumnLiquidWaterPathName = "column_liquid_water_path_kg_m02"
	ColumnIceWaterPathName    = "column_ice_water_path_kg_m02"
)

// Vector (height-resolved) predictor fields.
const (
	PressureName              = "pressure_pascals"
	TemperatureName           = "temperature_kelvins"
	SpecificHumidityName      = "specific_humidity_kg_kg01"
	LiquidWaterContentName    = "liquid_water_content_kg_m03"
	IceWaterContentName       = "ice_water_content_kg_m03"
	LiquidWaterPathName       = "liquid_water_path_kg_m02"
	IceWaterPathName          = "ice_water_path_kg_m02"
	UpwardLiquidWaterPathName = "upward_liquid_water_path_kg_m02"
	UpwardIceWaterPathName    = "upward_ice_water_path_kg_m02"
)

// Scalar target fields.
const (
	SurfaceDownFluxName = "shortwave_surface_down_flux_w_m02"
	TOAUpFluxName       = "shortwave_toa_up_flux_w_m02"
)

// Vector target fields.
const (
	DownFluxName          = "shortwave_down_flux_w_m02"
	UpFluxName            = "shortwave_up_flux_w_m02"
	HeatingRateName       = "shortwave_heating_rate_k_day01"
	DownFluxIncrementName = "shortwave_down_flux_inc_w_m03"
	UpFluxIncrementName   = "shortwave_up_flux_inc_w_m03"
)

// Standard-atmosphere classes (McClatchey reference profiles).
const (
	TropicalAtmo          = 1
	MidlatitudeSummerAtmo = 2
	MidlatitudeWinterAtmo = 3
	SubarcticSummerAtmo   = 4
	SubarcticWinterAtmo   = 5
	USStandardAtmo        = 6
)

// Registries of every known field per category, used to classify
// variables read from a file.
var (
	AllScalarPredictorNames = []string{
		ZenithAngleName, LatitudeName, LongitudeName, AlbedoName,
		ColumnLiquidWaterPathName, ColumnIceWaterPathName,
	}

	AllVectorPredictorNames = []string{
		PressureName, TemperatureName, SpecificHumidityName,
		LiquidWaterContentName, IceWaterContentName,
		LiquidWaterPathName, IceWaterPathName,
		UpwardLiquidWaterPathName, UpwardIceWaterPathName,
	}

	AllScalarTargetNames = []string{SurfaceDownFluxName, TOAUpFluxName}

	AllVectorTargetNames = []string{
		DownFluxName, UpFluxName, HeatingRateName,
		DownFluxIncrementName, UpFluxIncrementName,
	}
)
