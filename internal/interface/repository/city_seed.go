package repository

// cityCoordinates is the built-in city table, longitude first. It covers the
// municipalities, provincial capitals and the usual tourist destinations;
// anything else resolves to no route rather than an error.
var cityCoordinates = map[string][2]float64{
	// 直辖市
	"北京": {116.407526, 39.904030},
	"上海": {121.473701, 31.230416},
	"天津": {117.190182, 39.125596},
	"重庆": {106.504962, 29.533155},

	// 省会及主要城市
	"石家庄":  {114.502461, 38.045474},
	"太原":   {112.549248, 37.857014},
	"呼和浩特": {111.670801, 40.818311},
	"沈阳":   {123.298195, 41.836753},
	"长春":   {125.323544, 43.817071},
	"哈尔滨":  {126.534967, 45.803775},
	"南京":   {118.767413, 32.041544},
	"杭州":   {120.153576, 30.287459},
	"合肥":   {117.227239, 31.820586},
	"福州":   {119.296531, 26.074508},
	"南昌":   {115.857962, 28.682892},
	"济南":   {117.000923, 36.675807},
	"郑州":   {113.625368, 34.746599},
	"武汉":   {114.298572, 30.584355},
	"长沙":   {112.938814, 28.228209},
	"广州":   {113.264385, 23.129110},
	"南宁":   {108.366543, 22.817002},
	"海口":   {110.199889, 20.017756},
	"成都":   {104.066541, 30.572269},
	"贵阳":   {106.630153, 26.647661},
	"昆明":   {102.832891, 24.880095},
	"拉萨":   {91.132212, 29.660361},
	"西安":   {108.948024, 34.263161},
	"兰州":   {103.834303, 36.061089},
	"西宁":   {101.778228, 36.617144},
	"银川":   {106.230909, 38.487193},
	"乌鲁木齐": {87.616848, 43.825592},

	// 热门旅游城市
	"三亚":  {109.511909, 18.252847},
	"厦门":  {118.089425, 24.479833},
	"青岛":  {120.382631, 36.067108},
	"大连":  {121.614682, 38.914003},
	"苏州":  {120.585315, 31.298886},
	"桂林":  {110.290175, 25.274215},
	"丽江":  {100.229068, 26.875353},
	"黄山":  {118.317765, 29.709231},
	"张家界": {110.479146, 29.117094},
	"九寨沟": {103.914864, 33.254381},
	"敦煌":  {94.661965, 40.142118},
	"承德":  {117.963678, 40.951069},
	"北戴河": {119.488617, 39.818945},
	"山海关": {119.789459, 39.867708},
	"五台山": {113.496668, 38.849429},
	"平遥":  {112.188833, 37.195556},
	"开封":  {114.307483, 34.797108},
	"洛阳":  {112.433713, 34.668480},
	"泰山":  {117.101341, 36.254277},
	"曲阜":  {117.004289, 35.600359},
	"连云港": {119.221611, 34.596636},
}
