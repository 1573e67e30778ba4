package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// =============================================================
//
//	Shaders
//
// =============================================================
type Shader struct {
	vertexSource   string
	fragmentSource string
	program        uint32
}

func (shader *Shader) Compile() {
	vertexShader := GenShader(shader.vertexSource, gl.VERTEX_SHADER)
	fragmentShader := GenShader(shader.fragmentSource, gl.FRAGMENT_SHADER)
	shader.program = GenShaderProgram(vertexShader, fragmentShader)
}

func (shader *Shader) IsCompiled() bool {
	return shader.program != 0
}

func (shader *Shader) Use() {
	gl.UseProgram(shader.program)
}

func (shader *Shader) SetVec3(name string, value mgl32.Vec3) {
	location := gl.GetUniformLocation(shader.program, gl.Str(name+"\x00"))
	gl.Uniform3f(location, value.X(), value.Y(), value.Z())
}

func (shader *Shader) SetFloat(name string, value float32) {
	location := gl.GetUniformLocation(shader.program, gl.Str(name+"\x00"))
	gl.Uniform1f(location, value)
}

func (shader *Shader) SetInt(name string, value int32) {
	location := gl.GetUniformLocation(shader.program, gl.Str(name+"\x00"))
	gl.Uniform1i(location, value)
}

var vertexShaderSource = `#version 330 core

layout(location = 0) in vec3 inPosition; // Vertex position
layout(location = 1) in vec2 inTexCoord; // Texture Coordinate
layout(location = 2) in vec3 inNormal;   // Vertex normal

uniform mat4 model;
uniform mat4 viewProjection;

out vec2 fragTexCoord;
out vec3 Normal;
out vec3 FragPos;

void main() {
    FragPos = vec3(model * vec4(inPosition, 1.0));
    Normal = mat3(transpose(inverse(model))) * inNormal;
    fragTexCoord = inTexCoord;

    gl_Position = viewProjection * vec4(FragPos, 1.0);
}

` + "\x00"

// Spot lights follow the physically based falloff: irradiance is intensity
// divided by distance^decay, cut off smoothly at distance when it is set.
var fragmentShaderSource = `#version 330 core
#define MAX_SPOT_LIGHTS 8

in vec2 fragTexCoord;
in vec3 Normal;
in vec3 FragPos;

struct SpotLight {
    vec3 position;
    vec3 direction;
    vec3 color;
    float intensity;
    float distance;
    float decay;
    float coneCos;
    float penumbraCos;
};

uniform SpotLight spotLights[MAX_SPOT_LIGHTS];
uniform int spotLightCount;
uniform vec3 ambientColor;

uniform sampler2D textureSampler;
uniform bool useTexture;
uniform bool unlit;
uniform vec3 viewPos;
uniform vec3 diffuseColor;
uniform vec3 specularColor;
uniform float shininess;
uniform float alpha;

out vec4 FragColor;

void main() {
    vec4 texColor = useTexture ? texture(textureSampler, fragTexCoord) : vec4(1.0);
    vec3 base = diffuseColor * texColor.rgb;
    float outAlpha = alpha * texColor.a;
    if (outAlpha < 0.01) {
        discard;
    }

    if (unlit) {
        FragColor = vec4(base, outAlpha);
        return;
    }

    vec3 norm = normalize(Normal);
    if (!gl_FrontFacing) {
        norm = -norm;
    }
    vec3 viewDir = normalize(viewPos - FragPos);
    vec3 result = ambientColor * base;

    for (int i = 0; i < spotLightCount; i++) {
        vec3 toLight = spotLights[i].position - FragPos;
        float dist = max(length(toLight), 0.0001);
        vec3 lightDir = toLight / dist;

        float theta = dot(-lightDir, normalize(spotLights[i].direction));
        float cone = smoothstep(spotLights[i].coneCos, spotLights[i].penumbraCos, theta);
        if (cone <= 0.0) {
            continue;
        }

        float falloff = pow(dist, -spotLights[i].decay);
        if (spotLights[i].distance > 0.0) {
            float r = clamp(1.0 - pow(dist / spotLights[i].distance, 4.0), 0.0, 1.0);
            falloff *= r * r;
        }

        float diff = max(dot(norm, lightDir), 0.0);
        vec3 reflectDir = reflect(-lightDir, norm);
        float spec = pow(max(dot(viewDir, reflectDir), 0.0), shininess);

        vec3 radiance = spotLights[i].color * spotLights[i].intensity * falloff * cone;
        result += (diff * base + spec * specularColor) * radiance;
    }

    FragColor = vec4(result, outAlpha);
}
` + "\x00"

func InitShader() Shader {
	return Shader{
		vertexSource:   vertexShaderSource,
		fragmentSource: fragmentShaderSource,
	}
}
