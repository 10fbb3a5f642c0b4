package tag

// Identity keys.
const (
	KeyMaterial           = "material"
	KeyMaterialType       = "materialType"
	KeyMaterialVisibility = "materialVisibility"
	KeyMask               = "mask"
	KeyElement            = "element"
	KeyElementGroup       = "elementGroup"
	KeyMaterialGroup      = "materialGroup"
	KeyPrimaryInput       = "isPrimaryInput"
	KeyMaterialShader     = "isMaterialShader"
	KeyBaseColor          = "baseColor"
)

// Settings snapshot keys, stored on the channel a link layer renders.
const (
	KeySettingsAvailable  = "mm_SettingsAvailable"
	KeyAdvancedBlend      = "mm_AdvancedBlend"
	KeyLayerBelowCurve    = "mm_layerBelow"
	KeyThisLayerCurve     = "mm_thisLayer"
	KeyBlendAmount        = "mm_blendAmount"
	KeyBlendAmountEnabled = "mm_blendAmountEnabled"
	KeyBlendMode          = "mm_blendMode"
	KeyBlendType          = "mm_blendType"
	KeyLayerVisibility    = "mm_channelLayerVisibility"
	KeyColorTag           = "mm_colorTag"
	KeySwizzleR           = "mm_swizzle_r"
	KeySwizzleG           = "mm_swizzle_g"
	KeySwizzleB           = "mm_swizzle_b"
	KeySwizzleA           = "mm_swizzle_a"
)

// SwizzleKeys indexes the swizzle keys by component (r, g, b, a).
var SwizzleKeys = [4]string{KeySwizzleR, KeySwizzleG, KeySwizzleB, KeySwizzleA}

// IdentityKeys are stripped by a metadata-only material removal.
var IdentityKeys = []string{KeyMaterial, KeyMaterialType, KeyMask, KeyElement}
